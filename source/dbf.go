package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/nao1215/shpsql/domain/model"
)

// dBASE table layout
const (
	dbfHeaderSize      = 32
	dbfDescriptorSize  = 32
	dbfFieldNameSize   = 11
	dbfHeaderEnd       = 0x0D
	dbfDeletedFlag     = '*'
	dbfRecordCountPos  = 4
	dbfHeaderLenPos    = 8
	dbfRecordLenPos    = 10
	dbfFieldTypePos    = 11
	dbfFieldLengthPos  = 16
	dbfFieldDecimalPos = 17
)

// dbfField is a field descriptor together with its position in a record
type dbfField struct {
	model.FieldDescriptor
	offset int
	width  int
}

// dbfTable is a decoded dBASE III attribute table held in memory
type dbfTable struct {
	fields     []dbfField
	numRecords int
	headerLen  int
	recordLen  int
	data       []byte
	decoder    *encoding.Decoder
}

// parseDBF decodes the header and field descriptors of a dBASE file.
// Text is converted with decoder when it is not nil.
func parseDBF(data []byte, decoder *encoding.Decoder) (*dbfTable, error) {
	if len(data) < dbfHeaderSize+1 {
		return nil, fmt.Errorf("%w: dbf header is truncated", ErrInvalidData)
	}

	t := &dbfTable{
		numRecords: int(binary.LittleEndian.Uint32(data[dbfRecordCountPos:])),
		headerLen:  int(binary.LittleEndian.Uint16(data[dbfHeaderLenPos:])),
		recordLen:  int(binary.LittleEndian.Uint16(data[dbfRecordLenPos:])),
		data:       data,
		decoder:    decoder,
	}
	if t.headerLen > len(data) || t.headerLen < dbfHeaderSize+1 {
		return nil, fmt.Errorf("%w: dbf header length %d", ErrInvalidData, t.headerLen)
	}

	offset := 1 // deletion flag
	for pos := dbfHeaderSize; pos+dbfDescriptorSize <= t.headerLen && data[pos] != dbfHeaderEnd; pos += dbfDescriptorSize {
		desc := data[pos : pos+dbfDescriptorSize]

		name := desc[:dbfFieldNameSize]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		fieldName, err := t.decode(name)
		if err != nil {
			return nil, err
		}
		fieldName = strings.TrimSpace(fieldName)

		fieldType, err := dbfFieldType(desc[dbfFieldTypePos])
		if err != nil {
			return nil, fmt.Errorf("%w: field %s", err, fieldName)
		}
		width := int(desc[dbfFieldLengthPos])

		t.fields = append(t.fields, dbfField{
			FieldDescriptor: model.NewFieldDescriptor(fieldName, fieldType, width, int(desc[dbfFieldDecimalPos])),
			offset:          offset,
			width:           width,
		})
		offset += width
	}

	if offset > t.recordLen {
		return nil, fmt.Errorf("%w: dbf fields span %d bytes, records hold %d", ErrInvalidData, offset, t.recordLen)
	}
	return t, nil
}

// dbfFieldType maps a dBASE field type byte
func dbfFieldType(b byte) (model.FieldType, error) {
	switch b {
	case 'C', 'c':
		return model.FieldTypeCharacter, nil
	case 'D', 'd':
		return model.FieldTypeDate, nil
	case 'N', 'n':
		return model.FieldTypeNumber, nil
	case 'F', 'f':
		return model.FieldTypeFloating, nil
	case 'L', 'l':
		return model.FieldTypeLogical, nil
	default:
		return 0, fmt.Errorf("%w: dbf type %q", ErrUnsupportedFieldType, b)
	}
}

// descriptors returns the field descriptors in column order
func (t *dbfTable) descriptors() []model.FieldDescriptor {
	fields := make([]model.FieldDescriptor, len(t.fields))
	for i, f := range t.fields {
		fields[i] = f.FieldDescriptor
	}
	return fields
}

// record decodes record i. Deleted records report deleted and no cells.
func (t *dbfTable) record(i int) (cells []model.Cell, deleted bool, err error) {
	start := t.headerLen + i*t.recordLen
	end := start + t.recordLen
	if i < 0 || end > len(t.data) {
		return nil, false, fmt.Errorf("%w: dbf record %d is truncated", ErrInvalidData, i)
	}
	raw := t.data[start:end]
	if raw[0] == dbfDeletedFlag {
		return nil, true, nil
	}

	cells = make([]model.Cell, len(t.fields))
	for j, f := range t.fields {
		value, err := t.decode(raw[f.offset : f.offset+f.width])
		if err != nil {
			return nil, false, err
		}
		cell, err := model.ParseCell(f.FieldDescriptor, value)
		if err != nil {
			return nil, false, fmt.Errorf("dbf record %d: %w", i, err)
		}
		cells[j] = cell
	}
	return cells, false, nil
}

// decode converts raw bytes to a string through the code page decoder
func (t *dbfTable) decode(raw []byte) (string, error) {
	if t.decoder == nil {
		return string(raw), nil
	}
	b, err := t.decoder.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return string(b), nil
}

// codePageDecoder resolves the content of a .cpg file.
// UTF-8 yields a nil decoder; unknown code pages are reported with ok false.
func codePageDecoder(cpg string) (decoder *encoding.Decoder, ok bool) {
	name := strings.ToLower(strings.TrimSpace(cpg))
	switch {
	case name == "", name == "utf-8", name == "utf8", name == "65001":
		return nil, true
	case strings.HasPrefix(name, "cp") || strings.HasPrefix(name, "ansi "):
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(name, "cp"), "ansi "))
	}

	if n, err := strconv.Atoi(name); err == nil {
		switch {
		case n >= 1250 && n <= 1258:
			name = "windows-" + name
		case n >= 88591 && n <= 885916:
			name = "iso-8859-" + name[4:]
		case n == 932:
			name = "shift_jis"
		case n == 936:
			name = "gbk"
		case n == 949:
			name = "euc-kr"
		case n == 950:
			name = "big5"
		case n == 866:
			name = "ibm866"
		case n == 874:
			name = "windows-874"
		}
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, false
	}
	return enc.NewDecoder(), true
}
