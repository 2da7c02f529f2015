package shape

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownKind = errors.New("unknown shape kind")
	ErrMalformed   = errors.New("malformed shape")
)

// Each variant marshals with its "type" tag so the wire form is
// {"type":"rect","id":...,"x":...}.

func (s Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindRect, plain(s)})
}

func (s Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindCircle, plain(s)})
}

func (s Pencil) MarshalJSON() ([]byte, error) {
	type plain Pencil
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindPencil, plain(s)})
}

func (s Diamond) MarshalJSON() ([]byte, error) {
	type plain Diamond
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindDiamond, plain(s)})
}

func (s Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindText, plain(s)})
}

func (s Arrow) MarshalJSON() ([]byte, error) {
	type plain Arrow
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindArrow, plain(s)})
}

// Encode serializes a shape to its tagged JSON form.
func Encode(s Shape) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode shape: %w", ErrMalformed)
	}
	return json.Marshal(s)
}

// Decode parses a tagged JSON shape. Unknown tags yield ErrUnknownKind and
// structurally invalid payloads yield ErrMalformed; both are recoverable.
func Decode(data []byte) (Shape, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		s   Shape
		err error
	)
	switch head.Type {
	case KindRect:
		s, err = decodeAs[Rect](data)
	case KindCircle:
		s, err = decodeAs[Circle](data)
	case KindPencil:
		s, err = decodeAs[Pencil](data)
	case KindDiamond:
		s, err = decodeAs[Diamond](data)
	case KindText:
		s, err = decodeAs[Text](data)
	case KindArrow:
		s, err = decodeAs[Arrow](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// DecodeList decodes a JSON array of shapes, keeping the valid ones in
// order. Entries that fail to decode are skipped and reported in the
// joined error.
func DecodeList(data []byte) ([]Shape, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	shapes := make([]Shape, 0, len(raw))
	var errs []error
	for i, r := range raw {
		s, err := Decode(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("shape %d: %w", i, err))
			continue
		}
		shapes = append(shapes, s)
	}
	return shapes, errors.Join(errs...)
}

func decodeAs[T Shape](data []byte) (Shape, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

func validate(s Shape) error {
	if s.ShapeID() == "" {
		return fmt.Errorf("%w: missing id", ErrMalformed)
	}
	if p, ok := s.(Pencil); ok && len(p.Points) < 2 {
		return fmt.Errorf("%w: pencil needs at least 2 points, got %d", ErrMalformed, len(p.Points))
	}
	return nil
}
