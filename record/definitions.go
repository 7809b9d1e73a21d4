package record

var smallDefinitions = []string{
	"DEFINE TABLE small SCHEMAFULL",
	"DEFINE FIELD int ON TABLE small TYPE int",
	"DEFINE FIELD string ON TABLE small TYPE string",
}

var mediumDefinitions = []string{
	"DEFINE TABLE medium SCHEMAFULL",
	"DEFINE FIELD nested_smalls ON TABLE medium TYPE array",
	"DEFINE FIELD array ON TABLE medium TYPE array",
	"DEFINE FIELD opt_string ON TABLE medium TYPE string",
	"DEFINE FIELD opt_int ON TABLE medium TYPE int",
	"DEFINE FIELD opt_vec ON TABLE medium TYPE array",
	"DEFINE FIELD linked_thing ON TABLE medium TYPE record(small)",
}

var largeDefinitions = []string{
	"DEFINE TABLE large SCHEMAFULL",
	"DEFINE FIELD nested_mediums ON TABLE large TYPE array",
	"DEFINE FIELD opt_object ON TABLE large TYPE object",
	"DEFINE FIELD nested_array_in_object ON TABLE large TYPE object",
	"DEFINE FIELD int1 ON TABLE large TYPE int",
	"DEFINE FIELD int2 ON TABLE large TYPE int",
	"DEFINE FIELD int3 ON TABLE large TYPE int",
	"DEFINE FIELD int5 ON TABLE large TYPE int",
	"DEFINE FIELD int6 ON TABLE large TYPE int",
	"DEFINE FIELD int7 ON TABLE large TYPE int",
	"DEFINE FIELD opt_int ON TABLE large TYPE int",
	"DEFINE FIELD string1 ON TABLE large TYPE string",
	"DEFINE FIELD string2 ON TABLE large TYPE string",
	"DEFINE FIELD string3 ON TABLE large TYPE string",
	"DEFINE FIELD string4 ON TABLE large TYPE string",
	"DEFINE FIELD string5 ON TABLE large TYPE string",
	"DEFINE FIELD string6 ON TABLE large TYPE string",
	"DEFINE FIELD string7 ON TABLE large TYPE string",
	"DEFINE FIELD string8 ON TABLE large TYPE string",
	"DEFINE FIELD string9 ON TABLE large TYPE string",
	"DEFINE FIELD string10 ON TABLE large TYPE string",
	"DEFINE FIELD string11 ON TABLE large TYPE string",
	"DEFINE FIELD string12 ON TABLE large TYPE string",
	"DEFINE FIELD string13 ON TABLE large TYPE string",
	"DEFINE FIELD string14 ON TABLE large TYPE string",
	"DEFINE FIELD string15 ON TABLE large TYPE string",
	"DEFINE FIELD string16 ON TABLE large TYPE string",
	"DEFINE FIELD string17 ON TABLE large TYPE string",
	"DEFINE FIELD string18 ON TABLE large TYPE string",
	"DEFINE FIELD string19 ON TABLE large TYPE string",
	"DEFINE FIELD string20 ON TABLE large TYPE string",
	"DEFINE FIELD opt_string ON TABLE large TYPE string",
}

// DefinitionStatements returns the schema statements of a kind: the table
// definition followed by one field definition per field. The returned slice
// is a copy.
func DefinitionStatements(kind Kind) []string {
	var src []string
	switch kind {
	case KindSmall:
		src = smallDefinitions
	case KindMedium:
		src = mediumDefinitions
	case KindLarge:
		src = largeDefinitions
	}
	return append([]string(nil), src...)
}
