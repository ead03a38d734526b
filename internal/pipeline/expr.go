package pipeline

import (
	"fmt"
	"strings"
)

// Expr computes a value from a document. doc is the SQL expression of the
// jsonb document the expression is evaluated against.
type Expr interface {
	sql(c *compiler, doc string) (string, error)
}

// Cond is a boolean predicate over a document.
type Cond interface {
	sql(c *compiler, doc string) (string, error)
}

type exprFunc func(c *compiler, doc string) (string, error)

func (f exprFunc) sql(c *compiler, doc string) (string, error) { return f(c, doc) }

// Path reads a dotted field path as jsonb. Missing fields yield null.
func Path(path string) Expr {
	return exprFunc(func(_ *compiler, doc string) (string, error) {
		return jsonPath(doc, path)
	})
}

// First takes the first element of an array field, or null when it is empty.
func First(path string) Expr {
	return exprFunc(func(_ *compiler, doc string) (string, error) {
		p, err := jsonPath(doc, path)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s)->0", p), nil
	})
}

// Size counts the elements of an array field. Missing or non-array fields count as zero.
func Size(path string) Expr {
	return exprFunc(func(_ *compiler, doc string) (string, error) {
		p, err := jsonPath(doc, path)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE(jsonb_array_length(CASE WHEN jsonb_typeof(%[1]s) = 'array' THEN %[1]s END), 0)", p), nil
	})
}

// Num reads a numeric field, treating missing values as zero.
func Num(path string) Expr {
	return exprFunc(func(_ *compiler, doc string) (string, error) {
		p, err := textPath(doc, path)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE((%s)::NUMERIC, 0)", p), nil
	})
}

// Sum adds of evaluated against every element of an array field.
func Sum(array string, of Expr) Expr {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		arr, err := jsonPath(doc, array)
		if err != nil {
			return "", err
		}
		e := c.alias("e")
		inner, err := of.sql(c, e+".value")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE((SELECT sum(%s) FROM jsonb_array_elements(%s) AS %s(value)), 0)",
			inner, arrayOrEmpty(arr), e), nil
	})
}

// Add sums numeric expressions such as Size, Num and Sum.
func Add(exprs ...Expr) Expr {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		if len(exprs) == 0 {
			return "0", nil
		}
		parts := make([]string, 0, len(exprs))
		for _, expr := range exprs {
			s, err := expr.sql(c, doc)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, " + ") + ")", nil
	})
}

// In reports whether any element of an array field has elemField equal to value.
// An empty value is never a member.
func In(value, array, elemField string) Expr {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		arr, err := jsonPath(doc, array)
		if err != nil {
			return "", err
		}
		if value == "" {
			return "false", nil
		}
		e := c.alias("e")
		field, err := textPath(e+".value", elemField)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM jsonb_array_elements(%s) AS %s(value) WHERE %s = %s)",
			arrayOrEmpty(arr), e, field, c.bind(value)), nil
	})
}

// Object builds an embedded document from fields.
func Object(fields ...Field) Expr {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		return buildObject(c, doc, fields)
	})
}

// Eq matches documents whose field, read as text, equals value.
func Eq(field, value string) Cond {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		p, err := textPath(doc, field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", p, c.bind(value)), nil
	})
}

// IsTrue matches documents whose field is the boolean true.
func IsTrue(field string) Cond {
	return exprFunc(func(_ *compiler, doc string) (string, error) {
		p, err := jsonPath(doc, field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = 'true'::JSONB", p), nil
	})
}

// Contains matches documents where any of fields contains query, ignoring case.
// An empty query matches every document.
func Contains(query string, fields ...string) Cond {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		if query == "" || len(fields) == 0 {
			return "TRUE", nil
		}
		arg := c.bind("%" + escapeLike(query) + "%")
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			p, err := textPath(doc, field)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%s ILIKE %s", p, arg))
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	})
}

// And matches when every condition holds. No conditions match everything.
func And(conds ...Cond) Cond {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		return joinConds(c, doc, conds, " AND ", "TRUE")
	})
}

// Or matches when any condition holds. No conditions match nothing.
func Or(conds ...Cond) Cond {
	return exprFunc(func(c *compiler, doc string) (string, error) {
		return joinConds(c, doc, conds, " OR ", "FALSE")
	})
}

func joinConds(c *compiler, doc string, conds []Cond, sep, empty string) (string, error) {
	if len(conds) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(conds))
	for _, cond := range conds {
		s, err := cond.sql(c, doc)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func arrayOrEmpty(p string) string {
	return fmt.Sprintf("CASE WHEN jsonb_typeof(%[1]s) = 'array' THEN %[1]s ELSE '[]'::JSONB END", p)
}
