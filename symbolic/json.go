package symbolic

import "encoding/json"

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes the expression tree. Every node is an object with a "type"
// field: num, sym, const, special, add, mul, pow or func.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// Tree returns the decoded form of ToJSON, for embedding in larger documents.
func Tree(e Expr) map[string]interface{} { return e.toJSON() }
