package types

// Resource limits guard parse, compile and execute paths against
// pathological expressions. Depth and operand counts bound parser and
// compiler recursion; stack depth bounds the VM.
const (
	// MaxExpressionDepth caps nesting of operator applications.
	MaxExpressionDepth = 64

	// MaxOperandCount caps the operand list of a single operator.
	MaxOperandCount = 256

	// MaxStackDepth caps the VM operand stack.
	MaxStackDepth = 1024
)

// ID types prevent cross-entity ID confusion at compile time.
type (
	ProductID string
	RuleID    string
)

// AbstractAttribute declares an attribute path in a product's namespace.
// Immutable attributes may be read freely but reject modification once a
// product is live; the impact analyzer surfaces them.
type AbstractAttribute struct {
	AbstractPath string            `db:"abstract_path" json:"abstractPath"`
	DatatypeID   string            `db:"datatype_id" json:"datatypeId"`
	Immutable    bool              `db:"immutable" json:"immutable"`
	Tags         map[string]string `db:"-" json:"tags,omitempty"`
}

// Rule binds a JSON-Logic expression to the attribute paths it reads and
// the paths it writes. Expression holds the raw JSON text; parsing is
// deferred to the engine so stored rules survive operator-set evolution.
type Rule struct {
	ID               RuleID    `db:"id" json:"id"`
	ProductID        ProductID `db:"product_id" json:"productId"`
	RuleType         string    `db:"rule_type" json:"ruleType"`
	Expression       string    `db:"expression" json:"expression"`
	InputAttributes  []string  `db:"-" json:"inputAttributes"`
	OutputAttributes []string  `db:"-" json:"outputAttributes"`
	Enabled          bool      `db:"enabled" json:"enabled"`
	OrderIndex       int       `db:"order_index" json:"orderIndex"`
}

// Functionality names a capability of a product and the attribute paths it
// requires. Impact analysis reports functionalities whose required paths
// are reachable from a modified attribute.
type Functionality struct {
	Name                   string   `db:"name" json:"name"`
	RequiredAttributePaths []string `db:"-" json:"requiredAttributePaths"`
}

// Product aggregates the definitions the engine evaluates against.
type Product struct {
	ID              ProductID           `db:"id" json:"id"`
	Name            string              `db:"name" json:"name"`
	Status          string              `db:"status" json:"status"`
	Attributes      []AbstractAttribute `db:"-" json:"attributes"`
	Rules           []Rule              `db:"-" json:"rules"`
	Functionalities []Functionality     `db:"-" json:"functionalities"`
}

// EnabledRules returns the product's enabled rules in stored order.
func (p *Product) EnabledRules() []Rule {
	out := make([]Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// AttributeByPath looks up an abstract attribute declaration.
func (p *Product) AttributeByPath(path string) (AbstractAttribute, bool) {
	for _, a := range p.Attributes {
		if a.AbstractPath == path {
			return a, true
		}
	}
	return AbstractAttribute{}, false
}
