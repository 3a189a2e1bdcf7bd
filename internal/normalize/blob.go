package normalize

import (
	"strings"

	"profile_sync/internal/model"
)

// BlobKind tags which shape a Blob holds.
type BlobKind int

const (
	// BlobEmpty is a null or blank column.
	BlobEmpty BlobKind = iota
	// BlobDelimited is a "k=v; k2=v2" string.
	BlobDelimited
	// BlobJSON is text that may decode into cookie records.
	BlobJSON
	// BlobRecords holds records decoded elsewhere.
	BlobRecords
)

func (k BlobKind) String() string {
	switch k {
	case BlobDelimited:
		return "delimited"
	case BlobJSON:
		return "json"
	case BlobRecords:
		return "records"
	default:
		return "empty"
	}
}

// Blob is a raw cookie payload. Build it with one of the constructors; the
// zero value is an empty blob.
type Blob struct {
	kind    BlobKind
	text    string
	records []model.Cookie
}

// EmptyBlob is a blob with no cookies.
func EmptyBlob() Blob { return Blob{kind: BlobEmpty} }

// DelimitedBlob wraps a "k=v; k2=v2" cookie string.
func DelimitedBlob(s string) Blob {
	if strings.TrimSpace(s) == "" {
		return EmptyBlob()
	}
	return Blob{kind: BlobDelimited, text: s}
}

// JSONBlob wraps a JSON encoded cookie array.
func JSONBlob(b []byte) Blob {
	s := string(b)
	if strings.TrimSpace(s) == "" {
		return EmptyBlob()
	}
	return Blob{kind: BlobJSON, text: s}
}

// RecordsBlob wraps cookie records that were already decoded elsewhere.
func RecordsBlob(records []model.Cookie) Blob {
	if len(records) == 0 {
		return EmptyBlob()
	}
	return Blob{kind: BlobRecords, records: records}
}

// BlobFromColumn tags a nullable text column. Text starting with '[' is
// treated as JSON, everything else as a delimited cookie string.
func BlobFromColumn(v *string) Blob {
	if v == nil {
		return EmptyBlob()
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return EmptyBlob()
	}
	if strings.HasPrefix(s, "[") {
		return JSONBlob([]byte(s))
	}
	return DelimitedBlob(s)
}

// Kind reports the shape the blob was built with.
func (b Blob) Kind() BlobKind { return b.kind }
