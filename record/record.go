package record

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrMissingIdentifier = errors.New("record has no identifier")

// Record is a generated instance of one of the shapes.
type Record interface {
	Kind() Kind
	// Identifier returns the <table>:<key> id the record is written under.
	Identifier() (string, error)
}

// Small is the leaf record.
type Small struct {
	ID     string `json:"-"`
	Int    uint32 `json:"int"`
	String string `json:"string"`
}

// Medium nests five smalls and links to a small by id.
type Medium struct {
	ID           string   `json:"-"`
	NestedSmalls []Small  `json:"nested_smalls"`
	Array        []string `json:"array"`
	OptString    *string  `json:"opt_string"`
	OptInt       *uint32  `json:"opt_int"`
	OptVec       []string `json:"opt_vec"`
	LinkedThing  string   `json:"linked_thing"`
}

// Large nests twenty mediums next to maps, integers of every width and
// twenty independent strings.
type Large struct {
	ID                  string              `json:"-"`
	NestedMediums       []Medium            `json:"nested_mediums"`
	OptObject           map[string]string   `json:"opt_object"`
	NestedArrayInObject map[string][]string `json:"nested_array_in_object"`
	Int1                uint8               `json:"int1"`
	Int2                uint16              `json:"int2"`
	Int3                uint32              `json:"int3"`
	Int5                int8                `json:"int5"`
	Int6                int16               `json:"int6"`
	Int7                int32               `json:"int7"`
	OptInt              *uint32             `json:"opt_int"`
	String1             string              `json:"string1"`
	String2             string              `json:"string2"`
	String3             string              `json:"string3"`
	String4             string              `json:"string4"`
	String5             string              `json:"string5"`
	String6             string              `json:"string6"`
	String7             string              `json:"string7"`
	String8             string              `json:"string8"`
	String9             string              `json:"string9"`
	String10            string              `json:"string10"`
	String11            string              `json:"string11"`
	String12            string              `json:"string12"`
	String13            string              `json:"string13"`
	String14            string              `json:"string14"`
	String15            string              `json:"string15"`
	String16            string              `json:"string16"`
	String17            string              `json:"string17"`
	String18            string              `json:"string18"`
	String19            string              `json:"string19"`
	String20            string              `json:"string20"`
	OptString           *string             `json:"opt_string"`
}

func (*Small) Kind() Kind  { return KindSmall }
func (*Medium) Kind() Kind { return KindMedium }
func (*Large) Kind() Kind  { return KindLarge }

func (s *Small) Identifier() (string, error)  { return identifier(s.ID) }
func (m *Medium) Identifier() (string, error) { return identifier(m.ID) }
func (l *Large) Identifier() (string, error)  { return identifier(l.ID) }

// Strings returns the twenty independent text fields, in field order.
func (l *Large) Strings() []string {
	return []string{
		l.String1, l.String2, l.String3, l.String4, l.String5,
		l.String6, l.String7, l.String8, l.String9, l.String10,
		l.String11, l.String12, l.String13, l.String14, l.String15,
		l.String16, l.String17, l.String18, l.String19, l.String20,
	}
}

func identifier(id string) (string, error) {
	if id == "" {
		return "", ErrMissingIdentifier
	}
	return id, nil
}

// IdentifierOf returns the id a record must be written under.
func IdentifierOf(r Record) (string, error) {
	if r == nil {
		return "", ErrMissingIdentifier
	}
	return r.Identifier()
}

// Content serializes the record payload. The identifier is not part of it.
func Content(r Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrapf(err, "could not marshal %s record", r.Kind())
	}
	return b, nil
}
