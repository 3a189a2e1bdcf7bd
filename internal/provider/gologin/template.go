package gologin

import (
	"profile_sync/internal/model"
	"profile_sync/internal/provider"
)

const (
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.6998.36 Safari/537.36"
	defaultWebGLVendor   = "Google Inc. (AMD)"
	defaultWebGLRenderer = "ANGLE (AMD, AMD Radeon(TM) R5 Graphics (0x000098E4) Direct3D11 vs_5_0 ps_5_0, D3D11)"
)

var defaultFontFamilies = []string{
	"AIGDT", "AMGDT", "Abyssinica Sil Regular", "Alef", "Ani", "AnjaliOldLipi", "Caladea", "Chandas",
	"Chilanka", "Dancing Script", "David", "David Libre", "DejaVu Sans", "DejaVu Sans Condensed",
	"DejaVu Sans Light", "DejaVu Sans Mono", "DejaVu Serif", "DejaVu Serif Condensed", "Droid Sans",
	"Droid Sans Mono", "Dyuthi", "Frank Ruehl", "Frank Ruehl Libre", "Frank Ruehl Libre Black",
	"Frank Ruehl Libre Light", "FreeMono", "FreeSans", "FreeSerif", "Gargi", "Garuda", "Gubbi",
	"Jamrul", "KacstBook", "KacstOffice", "Kalapi", "Kalimati", "Karumbi", "Khmer OS", "Khmer UI",
	"Kinnari", "Laksaman", "Liberation Mono", "Liberation Sans", "Liberation Sans Narrow",
	"Liberation Serif", "Lohit Devanagari", "Lohit Telugu", "Loma", "Manjari", "Meera",
	"Meera Inimai", "Miriam", "Miriam Fixed", "Miriam Libre", "Mitra Mono", "Mukti Narrow", "Nakula",
	"Navuli", "Nimbus Roman", "Nimbus Sans", "Norasi", "Noto Mono", "Noto Sans", "Noto Sans Arabic UI",
	"Noto Sans CJK HK", "Noto Sans CJK JP", "Noto Sans CJK KR", "Noto Sans CJK SC", "Noto Sans CJK TC",
	"Noto Sans Lisu", "Noto Sans Mono CJK HK", "Noto Sans Mono CJK JP", "Noto Sans Mono CJK KR",
	"Noto Sans Mono CJK SC", "Noto Sans Mono CJK TC", "Noto Serif", "Noto Serif CJK JP",
	"Noto Serif CJK KR", "Noto Serif CJK SC", "Noto Serif CJK TC", "Noto Serif Georgian",
	"Noto Serif Hebrew", "Noto Serif Italic", "Noto Serif Lao", "OpenSymbol", "Oswald", "Padauk",
	"Padauk Book", "Pagul", "Phetsarath OT", "Pothana2000", "Purisa", "Rachana", "Rekha", "Roboto",
	"Roboto Black", "Roboto Light", "Roboto Medium", "Rubik Black", "Rubik Light", "Rubik Medium",
	"Russo One", "Saab", "Sahadeva", "Samanata", "Samyak Devanagari", "Samyak Gujarati",
	"Samyak Malayalam", "Samyak Tamil", "Sarai", "Source Code Pro", "Source Code Pro Black",
	"Source Code Pro Extra Light", "Source Code Pro Light", "Source Code Pro Medium",
	"Source Code Pro Semibold", "Source Sans Pro", "Source Sans Pro Black", "Source Sans Pro Extra Light",
	"Source Sans Pro Light", "Source Sans Pro Semibold", "Source Serif Pro", "Source Serif Pro Black",
	"Source Serif Pro Extra Light", "Source Serif Pro Light", "Source Serif Pro Semibold", "Suruma",
	"Tibetan Machine Uni", "Tlwg Mono", "Tlwg Typewriter", "Tlwg Typist", "Tlwg Typo", "URW Bookman L",
	"Ubuntu", "Umpush", "Uroob", "Vemana2000", "Waree",
}

// DefaultUserAgent is the navigator user agent every created profile gets.
func DefaultUserAgent() string {
	return defaultUserAgent
}

// NewProfileSpec returns the fixed Windows/Chrome fingerprint with the given
// name, notes and proxy. A nil proxy becomes the explicit "none" proxy.
func NewProfileSpec(name, notes string, proxy *model.Proxy) provider.ProfileSpec {
	p := model.NoProxy()
	if proxy != nil {
		p = *proxy
	}
	fonts := make([]string, len(defaultFontFamilies))
	copy(fonts, defaultFontFamilies)

	return provider.ProfileSpec{
		Name:        name,
		Notes:       notes,
		BrowserType: "chrome",
		OS:          "win",
		Navigator: provider.Navigator{
			UserAgent:  defaultUserAgent,
			Resolution: "1920x1080",
			Language:   "en-US",
			Platform:   "Win32",
		},
		Proxy: p,
		WebGLMetadata: provider.WebGLMetadata{
			Mode:     "mask",
			Vendor:   defaultWebGLVendor,
			Renderer: defaultWebGLRenderer,
		},
		Timezone: provider.Timezone{Enabled: true, FillBasedOnIP: true},
		WebRTC:   provider.Mode{Mode: "disabled"},
		Storage: provider.Storage{
			Local:      true,
			Extensions: true,
			Bookmarks:  true,
			History:    true,
			Passwords:  true,
			Session:    true,
		},
		Plugins:      provider.Plugins{EnableVulnerable: true, EnableFlash: true},
		Canvas:       provider.Mode{Mode: "off"},
		WebGL:        provider.Mode{Mode: "noise"},
		ClientRects:  provider.Mode{Mode: "noise"},
		AudioContext: provider.Mode{Mode: "noise"},
		MediaDevices: provider.MediaDevices{EnableMasking: true},
		Fonts: provider.Fonts{
			Families:      fonts,
			EnableMasking: true,
			EnableDomRect: true,
		},
	}
}
