package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnknownCollection indicates a pipeline referenced an unregistered collection.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrInvalidField indicates a field name or path that cannot be compiled.
	ErrInvalidField = errors.New("invalid field")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Collection exposes a table as jsonb documents. Document renders the document
// expression for a row of Table aliased as alias.
type Collection struct {
	Name     string
	Table    string
	Document func(alias string) string
}

// Schema is the set of collections pipelines may read from.
type Schema struct {
	collections map[string]Collection
}

// NewSchema registers collections by name.
func NewSchema(collections ...Collection) *Schema {
	s := &Schema{collections: make(map[string]Collection, len(collections))}
	for _, c := range collections {
		s.collections[c.Name] = c
	}
	return s
}

// Query is a compiled statement with positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// Compile renders p into a statement returning one doc column per row, in pipeline order.
func (s *Schema) Compile(p Pipeline) (Query, error) {
	c := &compiler{schema: s}
	inner, err := c.pipeline(p.from, p.stages)
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf("SELECT f.doc FROM (%s) AS f ORDER BY f.ord, f.doc->>'_id'", inner)
	return Query{SQL: sql, Args: c.args}, nil
}

// CompilePage renders p with a window count and a LIMIT/OFFSET slice. Each row
// returns the doc and the total number of documents before slicing.
func (s *Schema) CompilePage(p Pipeline, limit, offset int) (Query, error) {
	c := &compiler{schema: s}
	inner, err := c.pipeline(p.from, p.stages)
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf("SELECT f.doc, count(*) OVER () AS total FROM (%s) AS f ORDER BY f.ord, f.doc->>'_id' LIMIT %s OFFSET %s",
		inner, c.bind(limit), c.bind(offset))
	return Query{SQL: sql, Args: c.args}, nil
}

// CompileCount renders a statement counting the documents p produces.
func (s *Schema) CompileCount(p Pipeline) (Query, error) {
	c := &compiler{schema: s}
	inner, err := c.pipeline(p.from, p.stages)
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: fmt.Sprintf("SELECT count(*) FROM (%s) AS f", inner), Args: c.args}, nil
}

type compiler struct {
	schema  *Schema
	args    []any
	aliases int
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *compiler) alias(prefix string) string {
	c.aliases++
	return fmt.Sprintf("%s%d", prefix, c.aliases)
}

func (c *compiler) pipeline(from string, stages []Stage) (string, error) {
	coll, ok := c.schema.collections[from]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, from)
	}

	t := c.alias("t")
	query := fmt.Sprintf("SELECT %s AS doc, 0::INT8 AS ord FROM %s AS %s", coll.Document(t), coll.Table, t)

	for i, stage := range stages {
		next, err := stage.compile(c, query)
		if err != nil {
			return "", fmt.Errorf("%s stage %d: %w", from, i, err)
		}
		query = next
	}
	return query, nil
}

type matchStage struct{ cond Cond }

func (m matchStage) compile(c *compiler, input string) (string, error) {
	s := c.alias("s")
	cond, err := m.cond.sql(c, s+".doc")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %[1]s.doc, %[1]s.ord FROM (%[2]s) AS %[1]s WHERE %[3]s", s, input, cond), nil
}

type lookupStage struct{ join Join }

func (l lookupStage) compile(c *compiler, input string) (string, error) {
	j := l.join
	if err := checkIdent(j.As); err != nil {
		return "", err
	}

	s := c.alias("s")
	inner, err := c.pipeline(j.From, j.Pipeline.stages)
	if err != nil {
		return "", err
	}

	jl := c.alias("j")
	foreign, err := textPath(jl+".doc", j.ForeignField)
	if err != nil {
		return "", err
	}

	var agg string
	if j.LocalArray {
		local, err := jsonPath(s+".doc", j.LocalField)
		if err != nil {
			return "", err
		}
		e := c.alias("e")
		agg = fmt.Sprintf(
			"COALESCE((SELECT jsonb_agg(%[1]s.doc ORDER BY %[1]s.ord, %[2]s.pos) FROM jsonb_array_elements_text(%[3]s) WITH ORDINALITY AS %[2]s(val, pos) JOIN (%[4]s) AS %[1]s ON %[5]s = %[2]s.val), '[]'::JSONB)",
			jl, e, arrayOrEmpty(local), inner, foreign)
	} else {
		local, err := textPath(s+".doc", j.LocalField)
		if err != nil {
			return "", err
		}
		agg = fmt.Sprintf(
			"COALESCE((SELECT jsonb_agg(%[1]s.doc ORDER BY %[1]s.ord) FROM (%[2]s) AS %[1]s WHERE %[3]s = %[4]s), '[]'::JSONB)",
			jl, inner, foreign, local)
	}

	return fmt.Sprintf("SELECT %[1]s.doc || jsonb_build_object('%[2]s', %[3]s) AS doc, %[1]s.ord FROM (%[4]s) AS %[1]s",
		s, j.As, agg, input), nil
}

type addFieldsStage struct{ fields []Field }

func (a addFieldsStage) compile(c *compiler, input string) (string, error) {
	if len(a.fields) == 0 {
		return input, nil
	}
	s := c.alias("s")
	obj, err := buildObject(c, s+".doc", a.fields)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %[1]s.doc || %[2]s AS doc, %[1]s.ord FROM (%[3]s) AS %[1]s", s, obj, input), nil
}

type projectStage struct{ fields []Field }

func (p projectStage) compile(c *compiler, input string) (string, error) {
	s := c.alias("s")
	obj, err := buildObject(c, s+".doc", p.fields)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %[2]s AS doc, %[1]s.ord FROM (%[3]s) AS %[1]s", s, obj, input), nil
}

type unsetStage struct{ names []string }

func (u unsetStage) compile(c *compiler, input string) (string, error) {
	if len(u.names) == 0 {
		return input, nil
	}
	s := c.alias("s")
	var b strings.Builder
	b.WriteString(s + ".doc")
	for _, name := range u.names {
		if err := checkIdent(name); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " - '%s'", name)
	}
	return fmt.Sprintf("SELECT %[2]s AS doc, %[1]s.ord FROM (%[3]s) AS %[1]s", s, b.String(), input), nil
}

type unwindStage struct{ field string }

func (u unwindStage) compile(c *compiler, input string) (string, error) {
	if err := checkIdent(u.field); err != nil {
		return "", err
	}
	s := c.alias("s")
	e := c.alias("e")
	arr := arrayOrEmpty(fmt.Sprintf("%s.doc->'%s'", s, u.field))
	return fmt.Sprintf(
		"SELECT %[1]s.doc || jsonb_build_object('%[3]s', %[2]s.value) AS doc, row_number() OVER (ORDER BY %[1]s.ord, %[2]s.pos) AS ord FROM (%[4]s) AS %[1]s CROSS JOIN LATERAL jsonb_array_elements(%[5]s) WITH ORDINALITY AS %[2]s(value, pos)",
		s, e, u.field, input, arr), nil
}

type replaceRootStage struct{ field string }

func (r replaceRootStage) compile(c *compiler, input string) (string, error) {
	s := c.alias("s")
	p, err := jsonPath(s+".doc", r.field)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT %[2]s AS doc, %[1]s.ord FROM (%[3]s) AS %[1]s WHERE jsonb_typeof(%[2]s) = 'object'", s, p, input), nil
}

type sortStage struct{ keys []SortKey }

func (st sortStage) compile(c *compiler, input string) (string, error) {
	s := c.alias("s")
	order := make([]string, 0, len(st.keys)+1)
	for _, key := range st.keys {
		p, err := jsonPath(s+".doc", key.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		order = append(order, p+" "+dir)
	}
	order = append(order, s+".ord")
	return fmt.Sprintf("SELECT %[1]s.doc, row_number() OVER (ORDER BY %[2]s) AS ord FROM (%[3]s) AS %[1]s",
		s, strings.Join(order, ", "), input), nil
}

func buildObject(c *compiler, doc string, fields []Field) (string, error) {
	if len(fields) == 0 {
		return "'{}'::JSONB", nil
	}
	parts := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		if err := checkIdent(f.Name); err != nil {
			return "", err
		}
		if f.Expr == nil {
			return "", fmt.Errorf("%w: %q has no expression", ErrInvalidField, f.Name)
		}
		v, err := f.Expr.sql(c, doc)
		if err != nil {
			return "", err
		}
		parts = append(parts, "'"+f.Name+"'", v)
	}
	return "jsonb_build_object(" + strings.Join(parts, ", ") + ")", nil
}

func splitPath(path string) ([]string, error) {
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if err := checkIdent(seg); err != nil {
			return nil, err
		}
	}
	return segments, nil
}

func jsonPath(doc, path string) (string, error) {
	segments, err := splitPath(path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(doc)
	for _, seg := range segments {
		fmt.Fprintf(&b, "->'%s'", seg)
	}
	return b.String(), nil
}

func textPath(doc, path string) (string, error) {
	segments, err := splitPath(path)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(doc)
	for i, seg := range segments {
		if i == len(segments)-1 {
			fmt.Fprintf(&b, "->>'%s'", seg)
		} else {
			fmt.Fprintf(&b, "->'%s'", seg)
		}
	}
	return "(" + b.String() + ")", nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}
