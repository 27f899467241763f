package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ayushmaanbhav/product-farm-sub002/internal/types"
)

// ErrNotFound reports a missing row for a lookup by ID.
var ErrNotFound = errors.New("not found")

// Store exposes product-definition persistence over named queries.
type Store struct {
	q *Queries
}

// New builds a Store over an open database handle.
func New(db *sqlx.DB) (*Store, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &Store{q: q}, nil
}

// Attribute list and tag columns hold JSON arrays/objects; both SQLite
// and PostgreSQL store them as text and the codec stays in one place.

type productRow struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Status string `db:"status"`
}

type attributeRow struct {
	ProductID    string `db:"product_id"`
	AbstractPath string `db:"abstract_path"`
	DatatypeID   string `db:"datatype_id"`
	Immutable    bool   `db:"immutable"`
	Tags         string `db:"tags"`
}

type ruleRow struct {
	ID               string `db:"id"`
	ProductID        string `db:"product_id"`
	RuleType         string `db:"rule_type"`
	Expression       string `db:"expression"`
	InputAttributes  string `db:"input_attributes"`
	OutputAttributes string `db:"output_attributes"`
	Enabled          bool   `db:"enabled"`
	OrderIndex       int    `db:"order_index"`
}

type functionalityRow struct {
	ProductID              string `db:"product_id"`
	Name                   string `db:"name"`
	RequiredAttributePaths string `db:"required_attribute_paths"`
}

// CreateProduct inserts a product definition shell.
func (s *Store) CreateProduct(p types.Product) error {
	if p.ID == "" {
		return fmt.Errorf("product id required")
	}
	_, err := s.q.Exec("create-product", string(p.ID), p.Name, p.Status)
	return err
}

// CreateAttribute declares an abstract attribute under a product.
func (s *Store) CreateAttribute(productID types.ProductID, a types.AbstractAttribute) error {
	tags, err := encodeJSON(a.Tags)
	if err != nil {
		return err
	}
	_, err = s.q.Exec("create-attribute",
		string(productID), a.AbstractPath, a.DatatypeID, a.Immutable, tags)
	return err
}

// CreateRule inserts a rule. The expression text is stored verbatim; the
// engine validates it when the product is first evaluated or planned.
func (s *Store) CreateRule(r types.Rule) error {
	inputs, err := encodeJSON(r.InputAttributes)
	if err != nil {
		return err
	}
	outputs, err := encodeJSON(r.OutputAttributes)
	if err != nil {
		return err
	}
	_, err = s.q.Exec("create-rule",
		string(r.ID), string(r.ProductID), r.RuleType, r.Expression,
		inputs, outputs, r.Enabled, r.OrderIndex)
	return err
}

// SetRuleEnabled flips a rule on or off. This is the store-side "rule
// edit"; callers invalidate the engine's product caches afterwards.
func (s *Store) SetRuleEnabled(id types.RuleID, enabled bool) error {
	res, err := s.q.Exec("set-rule-enabled", enabled, string(id))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateFunctionality records a named capability and its required paths.
func (s *Store) CreateFunctionality(productID types.ProductID, f types.Functionality) error {
	paths, err := encodeJSON(f.RequiredAttributePaths)
	if err != nil {
		return err
	}
	_, err = s.q.Exec("create-functionality", string(productID), f.Name, paths)
	return err
}

// LoadProduct assembles the full definition the engine consumes:
// attributes, rules ordered by order_index, and functionalities.
func (s *Store) LoadProduct(id types.ProductID) (*types.Product, error) {
	var pr productRow
	if err := s.q.Get("get-product", &pr, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	p := &types.Product{
		ID:     types.ProductID(pr.ID),
		Name:   pr.Name,
		Status: pr.Status,
	}

	var attrs []attributeRow
	if err := s.q.Select("list-attributes", &attrs, string(id)); err != nil {
		return nil, err
	}
	for _, a := range attrs {
		var tags map[string]string
		if err := decodeJSON(a.Tags, &tags); err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.AbstractPath, err)
		}
		p.Attributes = append(p.Attributes, types.AbstractAttribute{
			AbstractPath: a.AbstractPath,
			DatatypeID:   a.DatatypeID,
			Immutable:    a.Immutable,
			Tags:         tags,
		})
	}

	var rules []ruleRow
	if err := s.q.Select("list-rules", &rules, string(id)); err != nil {
		return nil, err
	}
	for _, r := range rules {
		var inputs, outputs []string
		if err := decodeJSON(r.InputAttributes, &inputs); err != nil {
			return nil, fmt.Errorf("rule %s inputs: %w", r.ID, err)
		}
		if err := decodeJSON(r.OutputAttributes, &outputs); err != nil {
			return nil, fmt.Errorf("rule %s outputs: %w", r.ID, err)
		}
		p.Rules = append(p.Rules, types.Rule{
			ID:               types.RuleID(r.ID),
			ProductID:        types.ProductID(r.ProductID),
			RuleType:         r.RuleType,
			Expression:       r.Expression,
			InputAttributes:  inputs,
			OutputAttributes: outputs,
			Enabled:          r.Enabled,
			OrderIndex:       r.OrderIndex,
		})
	}

	var fns []functionalityRow
	if err := s.q.Select("list-functionalities", &fns, string(id)); err != nil {
		return nil, err
	}
	for _, f := range fns {
		var paths []string
		if err := decodeJSON(f.RequiredAttributePaths, &paths); err != nil {
			return nil, fmt.Errorf("functionality %s: %w", f.Name, err)
		}
		p.Functionalities = append(p.Functionalities, types.Functionality{
			Name:                   f.Name,
			RequiredAttributePaths: paths,
		})
	}

	return p, nil
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(s string, dest any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), dest)
}
