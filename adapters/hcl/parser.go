// Package hcl parses scenario files written in HCL.
package hcl

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"categorical/core/determinism"
	"categorical/core/scenario"
	"categorical/internal/errors"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "distribution", LabelNames: []string{"name"}},
		{Type: "combine", LabelNames: []string{"name"}},
		{Type: "query", LabelNames: []string{"target"}},
	},
}

var distributionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "uniform"},
		{Name: "weights"},
	},
}

var combineSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "left", Required: true},
		{Name: "right", Required: true},
		{Name: "merge", Required: true},
	},
}

var querySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "outcomes", Required: true},
	},
}

// Parser turns HCL scenario files into scenario.Scenario values
type Parser struct{}

// NewParser creates a new HCL scenario parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses the scenario at path
func (p *Parser) ParseFile(path string) (*scenario.Scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "cannot read scenario", err).WithContext("path", path)
	}
	return p.Parse(src, path)
}

// Parse parses scenario source. filename is used in diagnostics only.
func (p *Parser) Parse(src []byte, filename string) (*scenario.Scenario, error) {
	// hclparse caches by filename, so each call gets its own parser.
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing(filename, diags)
	}

	content, diags := f.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, errors.Parsing(filename, diags)
	}

	s := &scenario.Scenario{
		Source: scenario.Source{
			Name: filename,
			Hash: determinism.ComputeHash(src),
		},
	}

	for _, block := range content.Blocks {
		var err error
		switch block.Type {
		case "distribution":
			err = p.parseDistribution(s, block)
		case "combine":
			err = p.parseCombine(s, block)
		case "query":
			err = p.parseQuery(s, block)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Parser) parseDistribution(s *scenario.Scenario, block *hcl.Block) error {
	content, diags := block.Body.Content(distributionSchema)
	if diags.HasErrors() {
		return errors.Parsing(block.DefRange.String(), diags)
	}

	d := scenario.Distribution{
		Name: block.Labels[0],
		Line: block.DefRange.Start.Line,
	}

	uniform, hasUniform := content.Attributes["uniform"]
	weights, hasWeights := content.Attributes["weights"]
	switch {
	case hasUniform && !hasWeights:
		val, err := evaluate(uniform)
		if err != nil {
			return err
		}
		d.Kind = scenario.KindUniform
		if d.Uniform, err = outcomeList(val); err != nil {
			return err.WithContext("distribution", d.Name).WithContext("line", d.Line)
		}
	case hasWeights && !hasUniform:
		val, err := evaluate(weights)
		if err != nil {
			return err
		}
		d.Kind = scenario.KindWeighted
		if d.Weights, err = weightList(val); err != nil {
			return err.WithContext("distribution", d.Name).WithContext("line", d.Line)
		}
	}

	s.Distributions = append(s.Distributions, d)
	return nil
}

func (p *Parser) parseCombine(s *scenario.Scenario, block *hcl.Block) error {
	content, diags := block.Body.Content(combineSchema)
	if diags.HasErrors() {
		return errors.Parsing(block.DefRange.String(), diags)
	}

	c := scenario.Combine{
		Name: block.Labels[0],
		Line: block.DefRange.Start.Line,
	}
	fields := []struct {
		name string
		dst  *string
	}{
		{"left", &c.Left},
		{"right", &c.Right},
		{"merge", &c.Merge},
	}
	for _, f := range fields {
		name, dst := f.name, f.dst
		val, err := evaluate(content.Attributes[name])
		if err != nil {
			return err
		}
		if val.Type() != cty.String || val.IsNull() {
			return errors.Newf(errors.TypeInput, "combine %q: %s must be a string", c.Name, name).
				WithContext("line", c.Line)
		}
		*dst = val.AsString()
	}

	s.Combines = append(s.Combines, c)
	return nil
}

func (p *Parser) parseQuery(s *scenario.Scenario, block *hcl.Block) error {
	content, diags := block.Body.Content(querySchema)
	if diags.HasErrors() {
		return errors.Parsing(block.DefRange.String(), diags)
	}

	q := scenario.Query{
		Target: block.Labels[0],
		Line:   block.DefRange.Start.Line,
	}
	val, err := evaluate(content.Attributes["outcomes"])
	if err != nil {
		return err
	}
	if q.Outcomes, err = outcomeList(val); err != nil {
		return err.WithContext("query", q.Target).WithContext("line", q.Line)
	}

	s.Queries = append(s.Queries, q)
	return nil
}

func evaluate(attr *hcl.Attribute) (cty.Value, *errors.Error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, errors.Parsing(attr.NameRange.String(), diags)
	}
	return val, nil
}

// outcomeList converts a list, set or tuple of primitives to outcome strings
func outcomeList(val cty.Value) ([]string, *errors.Error) {
	ty := val.Type()
	if val.IsNull() || !(ty.IsListType() || ty.IsSetType() || ty.IsTupleType()) {
		return nil, errors.Input("expected a list of outcomes, got " + ty.FriendlyName())
	}

	outcomes := make([]string, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		s, err := primitiveString(elem)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, s)
	}
	return outcomes, nil
}

// weightList accepts either an object/map of outcome = weight, or a list of
// [outcome, weight] pairs. Only the list form can repeat an outcome.
func weightList(val cty.Value) ([]scenario.Weight, *errors.Error) {
	ty := val.Type()
	if val.IsNull() {
		return nil, errors.Input("weights must not be null")
	}

	var weights []scenario.Weight
	switch {
	case ty.IsObjectType() || ty.IsMapType():
		for it := val.ElementIterator(); it.Next(); {
			key, elem := it.Element()
			w, err := weightString(elem)
			if err != nil {
				return nil, err
			}
			weights = append(weights, scenario.Weight{Outcome: key.AsString(), Weight: w})
		}
	case ty.IsListType() || ty.IsTupleType():
		for it := val.ElementIterator(); it.Next(); {
			idx, elem := it.Element()
			ety := elem.Type()
			if elem.IsNull() || !(ety.IsListType() || ety.IsTupleType()) || elem.LengthInt() != 2 {
				i, _ := idx.AsBigFloat().Int64()
				return nil, errors.Newf(errors.TypeInput, "weights[%d] must be an [outcome, weight] pair", i)
			}
			outcome, err := primitiveString(elem.Index(cty.NumberIntVal(0)))
			if err != nil {
				return nil, err
			}
			w, err := weightString(elem.Index(cty.NumberIntVal(1)))
			if err != nil {
				return nil, err
			}
			weights = append(weights, scenario.Weight{Outcome: outcome, Weight: w})
		}
	default:
		return nil, errors.Input("expected weights as an object or a list of pairs, got " + ty.FriendlyName())
	}
	return weights, nil
}

func weightString(val cty.Value) (string, *errors.Error) {
	if !val.IsKnown() || val.IsNull() {
		return "", errors.Input("weight must be a known number")
	}
	switch val.Type() {
	case cty.Number:
		return val.AsBigFloat().Text('f', -1), nil
	case cty.String:
		return val.AsString(), nil
	default:
		return "", errors.Input("weight must be a number, got " + val.Type().FriendlyName())
	}
}

func primitiveString(val cty.Value) (string, *errors.Error) {
	if !val.IsKnown() || val.IsNull() {
		return "", errors.Input("outcome must be a known value")
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Number:
		return val.AsBigFloat().Text('f', -1), nil
	case cty.Bool:
		return strconv.FormatBool(val.True()), nil
	default:
		return "", errors.Input(fmt.Sprintf("outcome must be a string, number or bool, got %s", val.Type().FriendlyName()))
	}
}
