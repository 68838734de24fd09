package photoedit

import (
	"fmt"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/msomdec/design-gallery/internal/domain"
)

// MaxPhotoSize is the largest accepted upload.
const MaxPhotoSize = 5 << 20 // 5MiB

// DefaultSummaryLimit caps how many rejected files a summary names.
const DefaultSummaryLimit = 5

// Mode selects how many accepted files a selection may contribute.
type Mode int

const (
	// ModeReplace uses only the first accepted file.
	ModeReplace Mode = iota
	// ModeAppend uses every accepted file.
	ModeAppend
)

// Rejection explains why one file was not accepted.
type Rejection struct {
	FileName string
	Reason   string
}

// Validation is the outcome of checking a batch of chosen files.
type Validation struct {
	Accepted []domain.PhotoFile
	Rejected []Rejection
	// Ignored counts accepted files dropped because ModeReplace uses only one.
	Ignored int
}

// Validate classifies files against the media type and size rules.
// Rejections never block the accepted files of the same batch.
func Validate(files []domain.PhotoFile, mode Mode) Validation {
	var v Validation
	for _, f := range files {
		if reason := rejectReason(f); reason != "" {
			v.Rejected = append(v.Rejected, Rejection{FileName: displayName(f), Reason: reason})
			continue
		}
		v.Accepted = append(v.Accepted, f)
	}
	if mode == ModeReplace && len(v.Accepted) > 1 {
		v.Ignored = len(v.Accepted) - 1
		v.Accepted = v.Accepted[:1]
	}
	return v
}

func rejectReason(f domain.PhotoFile) string {
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		if f.ContentType == "" {
			return "not an image"
		}
		return fmt.Sprintf("not an image (%s)", f.ContentType)
	}
	if f.Size() > MaxPhotoSize {
		return fmt.Sprintf("%s exceeds the %s limit",
			humanize.IBytes(uint64(f.Size())), humanize.IBytes(MaxPhotoSize))
	}
	return ""
}

func displayName(f domain.PhotoFile) string {
	if f.Name == "" {
		return "(unnamed file)"
	}
	return f.Name
}

// Note returns an informational message about ignored files, or "".
func (v Validation) Note() string {
	switch v.Ignored {
	case 0:
		return ""
	case 1:
		return "Only one photo can replace an existing photo; 1 extra file was ignored."
	}
	return fmt.Sprintf("Only one photo can replace an existing photo; %d extra files were ignored.", v.Ignored)
}

// RejectionLines names at most limit rejected files and returns how many
// further rejections were left out.
func (v Validation) RejectionLines(limit int) (lines []string, more int) {
	if limit < 0 {
		limit = 0
	}
	for i, r := range v.Rejected {
		if i >= limit {
			return lines, len(v.Rejected) - limit
		}
		lines = append(lines, r.FileName+": "+r.Reason)
	}
	return lines, 0
}

// Summary renders the rejections as a single bounded message, or "" when
// nothing was rejected.
func (v Validation) Summary(limit int) string {
	if len(v.Rejected) == 0 {
		return ""
	}
	lines, more := v.RejectionLines(limit)

	var b strings.Builder
	if len(v.Rejected) == 1 {
		b.WriteString("1 file was rejected")
	} else {
		fmt.Fprintf(&b, "%d files were rejected", len(v.Rejected))
	}
	if len(lines) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(lines, "; "))
	}
	if more > 0 {
		fmt.Fprintf(&b, "; and %d more", more)
	}
	b.WriteString(".")
	return b.String()
}
