package smt

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// SMTLib drives an external solver through SMT-LIB2 on stdin, one process
// per Check.
type SMTLib struct {
	Path string
	Args []string
}

// NewSMTLib locates binary (default "z3") on PATH.
func NewSMTLib(binary string) (*SMTLib, error) {
	if binary == "" {
		binary = "z3"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("smtlib backend %s: %w", binary, ErrSolverUnavailable)
	}
	return &SMTLib{Path: path, Args: []string{"-in", "-smt2"}}, nil
}

// Name implements Backend.
func (b *SMTLib) Name() string { return BackendSMTLib }

// NewSolver implements Backend.
func (b *SMTLib) NewSolver() Solver { return &smtlibSolver{backend: b} }

type smtlibSolver struct {
	backend    *SMTLib
	assertions []Bool
	model      Model
}

func (s *smtlibSolver) Assert(bs ...Bool) {
	s.assertions = append(s.assertions, bs...)
}

func (s *smtlibSolver) Model() (Model, error) {
	if s.model == nil {
		return nil, errNoModel
	}
	return s.model, nil
}

func (s *smtlibSolver) Check(ctx context.Context) (Status, error) {
	s.model = nil
	g := buildGraph(s.assertions)
	var script bytes.Buffer
	writeScript(&script, g)

	cmd := exec.CommandContext(ctx, s.backend.Path, s.backend.Args...)
	cmd.Stdin = &script
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Unknown, ctx.Err()
		}
		// z3 exits non-zero when get-value follows unsat; the answer is still on stdout.
		if !bytes.HasPrefix(bytes.TrimSpace(stdout.Bytes()), []byte("unsat")) {
			return Unknown, fmt.Errorf("run %s: %w: %s", s.backend.Path, err, strings.TrimSpace(stderr.String()))
		}
	}

	status, values, err := parseResponse(&stdout)
	if err != nil {
		return Unknown, err
	}
	if status == Sat {
		s.model = make(Model, len(g.vars))
		for p := range g.vars {
			name := g.varExpr(p).Name
			v, ok := values[name]
			if !ok {
				return Unknown, fmt.Errorf("parse model: no value for %s", name)
			}
			s.model[name] = v
		}
	}
	return status, nil
}

// #region print
// writeScript renders the assertions of g as an SMT-LIB2 script. Named and
// shared subexpressions become define-fun entries.
func writeScript(w io.Writer, g *graph) {
	fmt.Fprintln(w, "(set-logic QF_LIA)")
	for p := range g.vars {
		v := g.varExpr(p)
		name := symbol(v.Name)
		fmt.Fprintf(w, "(declare-fun %s () Int)\n", name)
		fmt.Fprintf(w, "(assert (and (>= %s %s) (<= %s %s)))\n", name, lit(v.Lo), name, lit(v.Hi))
	}

	names := make(map[int]string)
	for i, nd := range g.nodes {
		if nd.kind == kConst || nd.kind == kVar || nd.kind == kBoolConst {
			continue
		}
		if nd.kind != kDef && nd.refs < 2 {
			continue
		}
		name := fmt.Sprintf("|_t%d|", i)
		if d, ok := nd.expr.(*DefExpr); ok {
			name = symbol(d.Name)
		}
		sort := "Int"
		if nd.kind >= kBoolConst {
			sort = "Bool"
		}
		body := g.term(i, names)
		names[i] = name
		fmt.Fprintf(w, "(define-fun %s () %s %s)\n", name, sort, body)
	}
	for _, r := range g.roots {
		fmt.Fprintf(w, "(assert %s)\n", g.term(r, names))
	}
	fmt.Fprintln(w, "(check-sat)")
	if len(g.vars) > 0 {
		vs := make([]string, len(g.vars))
		for p := range g.vars {
			vs[p] = symbol(g.varExpr(p).Name)
		}
		fmt.Fprintf(w, "(get-value (%s))\n", strings.Join(vs, " "))
	}
}

// Script renders assertions as an SMT-LIB2 script.
func Script(assertions ...Bool) string {
	var b strings.Builder
	writeScript(&b, buildGraph(assertions))
	return b.String()
}

// term prints node i, referring to already-defined nodes by name.
func (g *graph) term(i int, names map[int]string) string {
	if name, ok := names[i]; ok {
		return name
	}
	nd := g.nodes[i]
	sub := func(k int) string { return g.term(k, names) }
	join := func(head string) string {
		parts := make([]string, len(nd.kids))
		for j, k := range nd.kids {
			parts[j] = sub(k)
		}
		return "(" + head + " " + strings.Join(parts, " ") + ")"
	}
	switch nd.kind {
	case kConst:
		return lit(nd.val)
	case kVar:
		return symbol(nd.expr.(*VarExpr).Name)
	case kBoolConst:
		if nd.val == 1 {
			return "true"
		}
		return "false"
	case kDef:
		return sub(nd.kids[0])
	case kSum:
		return join("+")
	case kSub:
		return join("-")
	case kIte:
		return join("ite")
	case kCmp:
		return join(nd.op.String())
	case kAnd:
		return join("and")
	case kOr:
		return join("or")
	case kNot:
		return join("not")
	}
	panic(fmt.Sprintf("smt: unprintable node kind %d", nd.kind))
}

func lit(v int) string {
	if v < 0 {
		return fmt.Sprintf("(- %d)", -v)
	}
	return strconv.Itoa(v)
}

func symbol(name string) string {
	return "|" + strings.ReplaceAll(name, "|", "_") + "|"
}

// #endregion print

// #region parse
// parseResponse reads "sat|unsat|unknown" followed, for sat, by a get-value list.
func parseResponse(r io.Reader) (Status, map[string]int, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return Unknown, nil, fmt.Errorf("read solver output: %w", err)
	}
	toks := tokenize(string(data))
	if len(toks) == 0 {
		return Unknown, nil, fmt.Errorf("parse solver output: empty")
	}
	switch toks[0] {
	case "unsat":
		return Unsat, nil, nil
	case "unknown":
		return Unknown, nil, nil
	case "sat":
	default:
		return Unknown, nil, fmt.Errorf("parse solver output: unexpected %q", toks[0])
	}

	values := make(map[string]int)
	rest := toks[1:]
	// ((name value) (name (- value)) ...)
	for i := 0; i < len(rest); i++ {
		if rest[i] != "(" || i+2 >= len(rest) || rest[i+1] == "(" {
			continue
		}
		name := strings.Trim(rest[i+1], "|")
		v, n, err := parseValue(rest[i+2:])
		if err != nil {
			return Unknown, nil, fmt.Errorf("parse value of %s: %w", name, err)
		}
		values[name] = v
		i += 1 + n
	}
	return Sat, values, nil
}

func parseValue(toks []string) (int, int, error) {
	if toks[0] != "(" {
		v, err := strconv.Atoi(toks[0])
		return v, 1, err
	}
	if len(toks) < 4 || toks[1] != "-" || toks[3] != ")" {
		return 0, 0, fmt.Errorf("unsupported value form %v", toks[:min(4, len(toks))])
	}
	v, err := strconv.Atoi(toks[2])
	return -v, 4, err
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	inBar := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case inBar:
			cur.WriteRune(r)
			if r == '|' {
				inBar = false
			}
		case r == '|':
			cur.WriteRune(r)
			inBar = true
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\n' || r == '\t' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// #endregion parse
