package ddl

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var (
	ErrFieldType      = errors.New("field value does not match its type")
	ErrInvalidContent = errors.New("content is not a json object")
)

// TableDef holds the definitions of one table.
type TableDef struct {
	Schemafull bool
	Fields     map[string]FieldType
	Order      []string // field definition order
}

type tableKey struct {
	ns, db, table string
}

// Catalog holds table definitions per namespace and database. It is safe for
// concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tables map[tableKey]*TableDef
}

func NewCatalog() *Catalog {
	return &Catalog{tables: map[tableKey]*TableDef{}}
}

// Apply records a definition. Defining an existing table or field replaces it,
// removing a table that was never defined does nothing.
func (c *Catalog) Apply(ns, db string, stmt Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey{ns, db, stmt.Table}
	switch stmt.Action {
	case DefineTable:
		def := c.tableUnderLock(key)
		def.Schemafull = stmt.Schemafull
	case DefineField:
		def := c.tableUnderLock(key)
		if _, exists := def.Fields[stmt.Field]; !exists {
			def.Order = append(def.Order, stmt.Field)
		}
		def.Fields[stmt.Field] = stmt.Type
	case RemoveTable:
		delete(c.tables, key)
	}
}

// defining a field on an undefined table defines a schemaless table
func (c *Catalog) tableUnderLock(key tableKey) *TableDef {
	def, ok := c.tables[key]
	if !ok {
		def = &TableDef{Fields: map[string]FieldType{}}
		c.tables[key] = def
	}
	return def
}

// Table returns a copy of a table definition.
func (c *Catalog) Table(ns, db, table string) (TableDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	def, ok := c.tables[tableKey{ns, db, table}]
	if !ok {
		return TableDef{}, false
	}

	cp := TableDef{
		Schemafull: def.Schemafull,
		Fields:     make(map[string]FieldType, len(def.Fields)),
		Order:      append([]string(nil), def.Order...),
	}
	for k, v := range def.Fields {
		cp.Fields[k] = v
	}
	return cp, true
}

// Validate checks content against the definitions of its table and returns
// the content to store. Schemafull tables drop undeclared top level fields.
func (c *Catalog) Validate(ns, db, table, id string, content []byte) ([]byte, error) {
	if !gjson.ValidBytes(content) {
		return nil, errors.Wrapf(ErrInvalidContent, "record %s:%s", table, id)
	}
	doc := gjson.ParseBytes(content)
	if !doc.IsObject() {
		return nil, errors.Wrapf(ErrInvalidContent, "record %s:%s", table, id)
	}

	c.mu.RLock()
	def, ok := c.tables[tableKey{ns, db, table}]
	if !ok {
		c.mu.RUnlock()
		return content, nil
	}

	var err error
	dropped := false
	doc.ForEach(func(k, v gjson.Result) bool {
		ft, declared := def.Fields[k.Str]
		if !declared {
			dropped = dropped || def.Schemafull
			return true
		}
		if !ft.Accepts(v) {
			err = errors.Wrapf(ErrFieldType,
				"found %s for field `%s`, with record `%s:%s`, but expected a %s",
				v.Raw, k.Str, table, id, ft)
			return false
		}
		return true
	})
	var keep map[string]struct{}
	if dropped {
		keep = make(map[string]struct{}, len(def.Fields))
		for f := range def.Fields {
			keep[f] = struct{}{}
		}
	}
	c.mu.RUnlock()

	if err != nil {
		return nil, err
	}
	if !dropped {
		return content, nil
	}
	return keepFields(content, keep)
}

func keepFields(content []byte, keep map[string]struct{}) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrap(ErrInvalidContent, err.Error())
	}
	for k := range doc {
		if _, ok := keep[k]; !ok {
			delete(doc, k)
		}
	}
	return json.Marshal(doc)
}
