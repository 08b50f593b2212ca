package symbolic

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================
// Matrix: symbolic matrix
// ============================================================

type Matrix struct {
	rows, cols int
	data       [][]Expr
}

func NewMatrix(rows, cols int) *Matrix {
	data := make([][]Expr, rows)
	for i := range data {
		data[i] = make([]Expr, cols)
		for j := range data[i] {
			data[i][j] = N(0)
		}
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

func (m *Matrix) checkBounds(row, col int) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("symbolic: matrix index [%d,%d] out of range for %dx%d", row, col, m.rows, m.cols))
	}
}

func (m *Matrix) Get(row, col int) Expr {
	m.checkBounds(row, col)
	return m.data[row][col]
}

func (m *Matrix) Set(row, col int, val Expr) {
	m.checkBounds(row, col)
	m.data[row][col] = val
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, row := range m.data {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j, e := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

// IsConstantIn reports whether no entry depends on any of vars.
func (m *Matrix) IsConstantIn(vars []string) bool {
	for _, row := range m.data {
		for _, e := range row {
			for _, v := range vars {
				if DependsOn(e, v) {
					return false
				}
			}
		}
	}
	return true
}

// RREF reduces m in place to reduced row echelon form over the first
// pivotCols columns and returns the pivot column of each leading row.
// Entries that do not simplify to zero are treated as non-zero.
func (m *Matrix) RREF(pivotCols int) []int {
	var pivots []int
	row := 0
	for col := 0; col < pivotCols && row < m.rows; col++ {
		sel := -1
		for r := row; r < m.rows; r++ {
			if !isZeroValue(m.data[r][col]) {
				sel = r
				break
			}
		}
		if sel < 0 {
			continue
		}
		m.data[row], m.data[sel] = m.data[sel], m.data[row]
		inv := PowOf(m.data[row][col], N(-1))
		for j := range m.data[row] {
			m.data[row][j] = DeepSimplify(MulOf(m.data[row][j], inv))
		}
		for r := 0; r < m.rows; r++ {
			if r == row || isZeroValue(m.data[r][col]) {
				continue
			}
			factor := m.data[r][col]
			for j := range m.data[r] {
				m.data[r][j] = DeepSimplify(Subtract(m.data[r][j], MulOf(factor, m.data[row][j])))
			}
		}
		pivots = append(pivots, col)
		row++
	}
	return pivots
}

// ============================================================
// Partial Derivatives
// ============================================================

// PDiff computes the partial derivative of expr with respect to varName.
func PDiff(expr Expr, varName string) Expr { return Diff(expr, varName) }

// Jacobian returns the m×n matrix of partial derivatives.
func Jacobian(exprs []Expr, varNames []string) *Matrix {
	mat := NewMatrix(len(exprs), len(varNames))
	for i, e := range exprs {
		for j, v := range varNames {
			mat.Set(i, j, PDiff(e, v))
		}
	}
	return mat
}

// ============================================================
// Systems of equations
// ============================================================

// SystemResult holds the solutions of a system of residuals (each = 0).
// For underdetermined systems the unknowns left unconstrained are listed in
// Free, and Solutions express the others in terms of them.
type SystemResult struct {
	Vars            []string
	Solutions       []map[string]Expr
	Free            []string
	Linear          bool
	Inconsistent    bool
	Underdetermined bool
	Error           string
}

// SolveSystem solves residuals = 0 for vars. Linear systems go through exact
// Gauss-Jordan elimination. Other systems are solved one equation and one
// unknown at a time, branching on every solution.
func SolveSystem(residuals []Expr, vars []string) SystemResult {
	eqs := make([]Expr, len(residuals))
	for i, r := range residuals {
		eqs[i] = DeepSimplify(r)
	}
	jac := Jacobian(eqs, vars)
	if jac.IsConstantIn(vars) {
		return solveLinearSystem(eqs, vars, jac)
	}
	res := SystemResult{Vars: vars}
	sols, free, ok := eliminate(eqs, vars, 0)
	if !ok {
		res.Error = "system has no closed-form solution"
		return res
	}
	if len(free) > 0 {
		res.Underdetermined = true
		res.Free = free
		for _, s := range sols {
			for _, f := range free {
				s[f] = S(f)
			}
		}
	}
	for _, s := range sols {
		if systemHolds(eqs, s) {
			res.Solutions = append(res.Solutions, s)
		}
	}
	res.Solutions = sortSystemSolutions(res.Solutions, vars)
	if len(res.Solutions) == 0 {
		res.Inconsistent = true
	}
	return res
}

func solveLinearSystem(eqs []Expr, vars []string, jac *Matrix) SystemResult {
	n := len(vars)
	zero := make(map[string]Expr, n)
	for _, v := range vars {
		zero[v] = N(0)
	}
	aug := NewMatrix(len(eqs), n+1)
	for i, e := range eqs {
		for j := 0; j < n; j++ {
			aug.Set(i, j, jac.Get(i, j))
		}
		aug.Set(i, n, DeepSimplify(Neg(SubAll(e, zero))))
	}
	pivots := aug.RREF(n)
	res := SystemResult{Vars: vars, Linear: true}
	for r := len(pivots); r < aug.Rows(); r++ {
		if !isZeroValue(aug.Get(r, n)) {
			res.Inconsistent = true
			return res
		}
	}
	isPivot := map[int]int{}
	for r, c := range pivots {
		isPivot[c] = r
	}
	sol := make(map[string]Expr, n)
	for j, v := range vars {
		r, ok := isPivot[j]
		if !ok {
			res.Free = append(res.Free, v)
			sol[v] = S(v)
			continue
		}
		val := aug.Get(r, n)
		for k := range vars {
			if _, piv := isPivot[k]; piv || k == j {
				continue
			}
			val = Subtract(val, MulOf(aug.Get(r, k), S(vars[k])))
		}
		sol[v] = DeepSimplify(val)
	}
	res.Underdetermined = len(res.Free) > 0
	res.Solutions = []map[string]Expr{sol}
	return res
}

// eliminate solves one equation for one unknown, substitutes the solutions
// into the rest and recurses. Unknowns left without an equation are free.
func eliminate(eqs []Expr, vars []string, depth int) ([]map[string]Expr, []string, bool) {
	if depth > len(vars)+4 {
		return nil, nil, false
	}
	var live []Expr
	for _, e := range eqs {
		e = DeepSimplify(e)
		if HasSpecial(e) {
			return nil, nil, true
		}
		if !dependsOnAny(e, vars) {
			if isZeroValue(e) {
				continue
			}
			if len(FreeSymbols(e)) == 0 {
				return nil, nil, true
			}
		}
		live = append(live, e)
	}
	if len(live) == 0 {
		return []map[string]Expr{{}}, append([]string(nil), vars...), true
	}
	if len(vars) == 0 {
		return nil, nil, true
	}
	order := make([]int, len(live))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return countVars(live[order[a]], vars) < countVars(live[order[b]], vars)
	})
	for _, i := range order {
		for vi, v := range vars {
			if !DependsOn(live[i], v) {
				continue
			}
			sr := Solve(live[i], v)
			if sr.Error != "" || sr.Identity || sr.Residual.Degree() >= 1 {
				continue
			}
			rest := make([]Expr, 0, len(live)-1)
			for j, e := range live {
				if j != i {
					rest = append(rest, e)
				}
			}
			restVars := append(append([]string(nil), vars[:vi]...), vars[vi+1:]...)
			var out []map[string]Expr
			var free []string
			ok := true
			for _, s := range sr.Solutions {
				sub := make([]Expr, len(rest))
				for j, e := range rest {
					sub[j] = e.Sub(v, s).Simplify()
				}
				branch, f, fine := eliminate(sub, restVars, depth+1)
				if !fine {
					ok = false
					break
				}
				if len(f) > 0 {
					free = f
				}
				for _, m := range branch {
					m[v] = DeepSimplify(SubAll(s, m))
					out = append(out, m)
				}
			}
			if ok {
				return out, free, true
			}
		}
	}
	return nil, nil, false
}

func dependsOnAny(e Expr, vars []string) bool {
	return countVars(e, vars) > 0
}

func countVars(e Expr, vars []string) int {
	n := 0
	for _, v := range vars {
		if DependsOn(e, v) {
			n++
		}
	}
	return n
}

func systemHolds(eqs []Expr, sol map[string]Expr) bool {
	for _, e := range eqs {
		r := DeepSimplify(SubAll(e, sol))
		if HasSpecial(r) {
			return false
		}
		if len(FreeSymbols(r)) > 0 {
			continue
		}
		v, ok := EvalFloat(r, nil)
		if !ok || !nearTol(v, 1e-9) {
			return false
		}
	}
	return true
}

func nearTol(v, tol float64) bool { return v >= -tol && v <= tol }

func sortSystemSolutions(sols []map[string]Expr, vars []string) []map[string]Expr {
	key := func(m map[string]Expr) string {
		parts := make([]string, len(vars))
		for i, v := range vars {
			if e, ok := m[v]; ok {
				parts[i] = e.String()
			}
		}
		return strings.Join(parts, "|")
	}
	seen := map[string]bool{}
	out := sols[:0:0]
	for _, s := range sols {
		k := key(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, v := range vars {
			a, okA := EvalFloat(out[i][v], nil)
			b, okB := EvalFloat(out[j][v], nil)
			if okA && okB && a != b {
				return a < b
			}
		}
		return key(out[i]) < key(out[j])
	})
	return out
}
