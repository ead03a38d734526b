package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/logging"
)

// ErrNoDocuments indicates a pipeline expected to yield a document yielded none.
var ErrNoDocuments = errors.New("pipeline returned no documents")

// Executor runs compiled pipelines against PostgreSQL.
type Executor struct {
	pool   db.Pool
	schema *Schema
}

// NewExecutor constructs an executor for pipelines over schema.
func NewExecutor(pool db.Pool, schema *Schema) *Executor {
	return &Executor{pool: pool, schema: schema}
}

// All runs p and unmarshals every document into dest, which must point to a slice.
func (e *Executor) All(ctx context.Context, p Pipeline, dest any) error {
	q, err := e.schema.Compile(p)
	if err != nil {
		return err
	}

	docs, _, err := e.run(ctx, "pipeline."+p.from, q, false)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode documents: %w", err)
	}
	return nil
}

// One runs p and unmarshals its first document into dest.
func (e *Executor) One(ctx context.Context, p Pipeline, dest any) error {
	q, err := e.schema.Compile(p)
	if err != nil {
		return err
	}

	docs, _, err := e.run(ctx, "pipeline."+p.from, q, false)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	if err := json.Unmarshal(docs[0], dest); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Paginate runs p for a single page and relabels the result.
func (e *Executor) Paginate(ctx context.Context, p Pipeline, page Page, labels Labels) (PageResult, error) {
	q, err := e.schema.CompilePage(p, page.Limit, page.Offset())
	if err != nil {
		return PageResult{}, err
	}

	docs, total, err := e.run(ctx, "paginate."+p.from, q, true)
	if err != nil {
		return PageResult{}, err
	}

	// The window count is unavailable when the page is past the end.
	if len(docs) == 0 && page.Offset() > 0 {
		cq, err := e.schema.CompileCount(p)
		if err != nil {
			return PageResult{}, err
		}
		total, err = e.count(ctx, cq)
		if err != nil {
			return PageResult{}, err
		}
	}

	return NewPageResult(docs, total, page, labels), nil
}

func (e *Executor) run(ctx context.Context, name string, q Query, withTotal bool) ([]json.RawMessage, int64, error) {
	ctx, span := logging.StartSpan(ctx, name)
	defer span.End()

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("run %s: %w", name, err)
	}
	defer rows.Close()

	var (
		docs  []json.RawMessage
		total int64
	)
	for rows.Next() {
		var raw []byte
		if withTotal {
			err = rows.Scan(&raw, &total)
		} else {
			err = rows.Scan(&raw)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", name, err)
		}
		docs = append(docs, json.RawMessage(append([]byte(nil), raw...)))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s: %w", name, err)
	}

	if docs == nil {
		docs = []json.RawMessage{}
	}
	return docs, total, nil
}

func (e *Executor) count(ctx context.Context, q Query) (int64, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, q.SQL, q.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}
