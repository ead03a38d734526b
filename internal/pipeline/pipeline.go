// Package pipeline builds read-only document pipelines and compiles them into a
// single PostgreSQL statement over jsonb documents.
//
// Every collection exposes its rows as jsonb documents. Stages are applied in
// order; each stage wraps the previous one as a subquery producing (doc, ord),
// where ord carries the current ordering so later stages and joins keep it.
package pipeline

// Stage is one step of a pipeline.
type Stage interface {
	compile(c *compiler, input string) (string, error)
}

// Pipeline is an unexecuted sequence of stages over a collection.
type Pipeline struct {
	from   string
	stages []Stage
}

// From starts a pipeline over the named collection.
func From(collection string) Pipeline {
	return Pipeline{from: collection}
}

// Collection returns the collection the pipeline reads from.
func (p Pipeline) Collection() string { return p.from }

func (p Pipeline) with(s Stage) Pipeline {
	stages := make([]Stage, 0, len(p.stages)+1)
	stages = append(stages, p.stages...)
	return Pipeline{from: p.from, stages: append(stages, s)}
}

// Match keeps documents satisfying cond.
func (p Pipeline) Match(cond Cond) Pipeline { return p.with(matchStage{cond: cond}) }

// Lookup joins another collection into an array field.
func (p Pipeline) Lookup(j Join) Pipeline { return p.with(lookupStage{join: j}) }

// AddFields sets computed fields, keeping the rest of the document.
func (p Pipeline) AddFields(fields ...Field) Pipeline { return p.with(addFieldsStage{fields: fields}) }

// Project replaces the document with exactly the listed fields.
func (p Pipeline) Project(fields ...Field) Pipeline { return p.with(projectStage{fields: fields}) }

// Unset removes top-level fields.
func (p Pipeline) Unset(names ...string) Pipeline { return p.with(unsetStage{names: names}) }

// Unwind emits one document per element of an array field.
// Documents whose field is missing or empty are dropped.
func (p Pipeline) Unwind(field string) Pipeline { return p.with(unwindStage{field: field}) }

// ReplaceRoot promotes an embedded object to be the whole document.
// Documents where the field is not an object are dropped.
func (p Pipeline) ReplaceRoot(field string) Pipeline { return p.with(replaceRootStage{field: field}) }

// Sort orders documents by keys. Ties keep their previous relative order.
func (p Pipeline) Sort(keys ...SortKey) Pipeline { return p.with(sortStage{keys: keys}) }

// Join describes a lookup. LocalField and ForeignField are dotted paths.
// When LocalArray is set the local field holds an array of keys and the joined
// documents follow that array's order.
type Join struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	LocalArray   bool
	Pipeline     Pipeline
}

// Sub starts the inner pipeline of a join. Its collection comes from Join.From.
func Sub() Pipeline { return Pipeline{} }

// Field is a named output of AddFields or Project.
type Field struct {
	Name string
	Expr Expr
}

// Set names an expression.
func Set(name string, expr Expr) Field { return Field{Name: name, Expr: expr} }

// Keep copies fields unchanged.
func Keep(names ...string) []Field {
	out := make([]Field, 0, len(names))
	for _, name := range names {
		out = append(out, Field{Name: name, Expr: Path(name)})
	}
	return out
}

// Fields concatenates field lists.
func Fields(groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// SortKey orders by a field.
type SortKey struct {
	Field string
	Desc  bool
}

// Asc sorts ascending by field.
func Asc(field string) SortKey { return SortKey{Field: field} }

// Desc sorts descending by field.
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }
