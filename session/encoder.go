package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// CurrentSchemaVersion is the schema byte written by Encode.
	CurrentSchemaVersion = recordFormatVersionV2

	recordFormatVersionV2 = 2
	recordFormatVersionV1 = 1
)

// Encode serializes rec using the current schema version.
func Encode(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("nil session record")
	}

	var buf bytes.Buffer
	buf.WriteByte(CurrentSchemaVersion)

	for _, field := range []struct {
		name  string
		value string
	}{
		{"sessionID", rec.SessionID},
		{"userID", rec.UserID},
		{"tenantID", rec.TenantID},
		{"username", rec.Username},
		{"role", rec.Role},
	} {
		if len(field.value) > math.MaxUint8 {
			return nil, fmt.Errorf("%s too long", field.name)
		}
		buf.WriteByte(byte(len(field.value)))
		buf.WriteString(field.value)
	}

	if err := binary.Write(&buf, binary.BigEndian, rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, rec.ExpiresAt); err != nil {
		return nil, err
	}

	if len(rec.Token) > math.MaxUint16 {
		return nil, errors.New("token too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(rec.Token))); err != nil {
		return nil, err
	}
	buf.WriteString(rec.Token)

	return buf.Bytes(), nil
}

// Decode parses a blob written by any supported schema version. The returned
// record always carries [CurrentSchemaVersion] in memory; v1 blobs decode with
// an empty Token.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionV2 && version != recordFormatVersionV1 {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	rec := &Record{SchemaVersion: CurrentSchemaVersion}
	for _, dst := range []*string{&rec.SessionID, &rec.UserID, &rec.TenantID, &rec.Username, &rec.Role} {
		s, err := readShortString(reader)
		if err != nil {
			return nil, err
		}
		*dst = s
	}

	if err := binary.Read(reader, binary.BigEndian, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &rec.ExpiresAt); err != nil {
		return nil, err
	}

	if version >= recordFormatVersionV2 {
		var tokenLen uint16
		if err := binary.Read(reader, binary.BigEndian, &tokenLen); err != nil {
			return nil, err
		}
		token := make([]byte, tokenLen)
		if _, err := io.ReadFull(reader, token); err != nil {
			return nil, err
		}
		rec.Token = string(token)
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after session record")
	}

	return rec, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
