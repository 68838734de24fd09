// Package designform encodes and decodes the multipart body of the design
// update endpoint.
//
// Scalar fields travel as plain form values. For each photo category with
// field prefix p (building, floorPlan) the body carries:
//
//	{p}Photos              the uploaded files, in order
//	{p}PhotoIndices        JSON int array parallel to the files; -1 appends
//	deleted{P}PhotoIndices JSON int array of existing positions to remove
package designform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/msomdec/design-gallery/internal/domain"
)

// MaxMemory bounds the part of a parsed update body kept in memory.
const MaxMemory = 32 << 20

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldLocation    = "location"
	fieldStyle       = "style"
	fieldAreaSqm     = "areaSqm"
)

// FilesField is the multipart field holding a category's uploaded files.
func FilesField(c domain.PhotoCategory) string { return c.FieldPrefix() + "Photos" }

// IndicesField is the field holding the file-to-position mapping.
func IndicesField(c domain.PhotoCategory) string { return c.FieldPrefix() + "PhotoIndices" }

// DeletedField is the field holding the positions to delete.
func DeletedField(c domain.PhotoCategory) string {
	p := c.FieldPrefix()
	return "deleted" + strings.ToUpper(p[:1]) + p[1:] + "PhotoIndices"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode writes update to w as a multipart form and returns the request
// content type.
func Encode(w io.Writer, update domain.DesignUpdate) (string, error) {
	mw := multipart.NewWriter(w)

	f := update.Fields
	scalars := []struct {
		name  string
		value *string
	}{
		{fieldTitle, f.Title},
		{fieldDescription, f.Description},
		{fieldLocation, f.Location},
		{fieldStyle, f.Style},
	}
	for _, s := range scalars {
		if s.value == nil {
			continue
		}
		if err := mw.WriteField(s.name, *s.value); err != nil {
			return "", fmt.Errorf("write %s: %w", s.name, err)
		}
	}
	if f.AreaSqm != nil {
		if err := mw.WriteField(fieldAreaSqm, strconv.FormatFloat(*f.AreaSqm, 'f', -1, 64)); err != nil {
			return "", fmt.Errorf("write %s: %w", fieldAreaSqm, err)
		}
	}

	for _, c := range domain.PhotoCategories {
		ch, ok := update.Photos[c]
		if !ok || ch.IsEmpty() {
			continue
		}
		for _, file := range ch.Files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
				quoteEscaper.Replace(FilesField(c)), quoteEscaper.Replace(file.Name)))
			h.Set("Content-Type", file.ContentType)
			part, err := mw.CreatePart(h)
			if err != nil {
				return "", fmt.Errorf("create part %s: %w", file.Name, err)
			}
			if _, err := part.Write(file.Data); err != nil {
				return "", fmt.Errorf("write part %s: %w", file.Name, err)
			}
		}
		if err := writeInts(mw, IndicesField(c), ch.Indices); err != nil {
			return "", err
		}
		if err := writeInts(mw, DeletedField(c), ch.Deleted); err != nil {
			return "", err
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}
	return mw.FormDataContentType(), nil
}

func writeInts(mw *multipart.Writer, name string, ints []int) error {
	if ints == nil {
		ints = []int{}
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := mw.WriteField(name, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Decode reads a parsed multipart form. Missing fields leave the matching
// part of the update unset. Malformed values wrap domain.ErrInvalidInput.
func Decode(form *multipart.Form) (domain.DesignUpdate, error) {
	var update domain.DesignUpdate

	str := func(name string) *string {
		if vs, ok := form.Value[name]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	update.Fields.Title = str(fieldTitle)
	update.Fields.Description = str(fieldDescription)
	update.Fields.Location = str(fieldLocation)
	update.Fields.Style = str(fieldStyle)
	if v := str(fieldAreaSqm); v != nil && strings.TrimSpace(*v) != "" {
		area, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
		if err != nil {
			return update, fmt.Errorf("%w: areaSqm must be a number", domain.ErrInvalidInput)
		}
		update.Fields.AreaSqm = &area
	}

	for _, c := range domain.PhotoCategories {
		var ch domain.PhotoChanges
		var err error

		if ch.Indices, err = readInts(form, IndicesField(c)); err != nil {
			return update, err
		}
		if ch.Deleted, err = readInts(form, DeletedField(c)); err != nil {
			return update, err
		}
		if ch.Files, err = Files(form, FilesField(c)); err != nil {
			return update, err
		}

		if len(ch.Files) != len(ch.Indices) {
			return update, fmt.Errorf("%w: %s has %d files but %d indices",
				domain.ErrInvalidInput, FilesField(c), len(ch.Files), len(ch.Indices))
		}
		if ch.IsEmpty() {
			continue
		}
		if update.Photos == nil {
			update.Photos = make(map[domain.PhotoCategory]domain.PhotoChanges)
		}
		update.Photos[c] = ch
	}
	return update, nil
}

func readInts(form *multipart.Form, name string) ([]int, error) {
	vs := form.Value[name]
	if len(vs) == 0 || strings.TrimSpace(vs[0]) == "" {
		return nil, nil
	}
	var ints []int
	if err := json.Unmarshal([]byte(vs[0]), &ints); err != nil {
		return nil, fmt.Errorf("%w: %s must be a JSON array of integers", domain.ErrInvalidInput, name)
	}
	return ints, nil
}

func readFile(fh *multipart.FileHeader) (domain.PhotoFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.PhotoFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return domain.PhotoFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return domain.PhotoFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	}, nil
}

// Files reads every file uploaded under name.
func Files(form *multipart.Form, name string) ([]domain.PhotoFile, error) {
	var files []domain.PhotoFile
	for _, fh := range form.File[name] {
		file, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
