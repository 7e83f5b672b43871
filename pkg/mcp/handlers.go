package mcp

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/twtrace/pkg/extract"
)

type classStringResult struct {
	Output  string   `json:"output"`
	Classes []string `json:"classes"`
	Changed bool     `json:"changed"`
	Tier    string   `json:"tier"`
}

type sourceResult struct {
	Source       string   `json:"source"`
	Dialect      string   `json:"dialect"`
	Classes      []string `json:"classes"`
	Sites        int      `json:"sites"`
	ChangedSites int      `json:"changed_sites"`
	Changed      bool     `json:"changed"`
}

type classifyResult struct {
	Token      string   `json:"token"`
	Recognized bool     `json:"recognized"`
	Variants   []string `json:"variants,omitempty"`
	Important  bool     `json:"important,omitempty"`
	Negative   bool     `json:"negative,omitempty"`
	Base       string   `json:"base,omitempty"`
	Value      string   `json:"value,omitempty"`
	Modifier   string   `json:"modifier,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Scale      string   `json:"scale,omitempty"`
	Canonical  string   `json:"canonical,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func (s *Server) handleTransformClassString(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.engine.Transformer().Transform(value, req.GetBool("obfuscate", false))
	return jsonResult(classStringResult{
		Output:  res.Output,
		Classes: nonNil(res.Classes),
		Changed: res.Changed,
		Tier:    res.Tier.String(),
	})
}

func (s *Server) handleTransformSource(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", "")
	obfuscate := req.GetBool("obfuscate", false)

	var res *extract.FileResult
	if filename == "" {
		res, err = s.engine.TransformSource([]byte(source), obfuscate)
	} else {
		res, err = s.engine.TransformFile(filename, []byte(source), obfuscate)
	}
	if err != nil {
		// Parse errors and unsupported extensions are tool errors.
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(sourceResult{
		Source:       string(res.Source),
		Dialect:      res.Dialect.String(),
		Classes:      nonNil(res.Classes),
		Sites:        res.Sites,
		ChangedSites: res.ChangedSites,
		Changed:      res.Changed,
	})
}

func (s *Server) handleClassifyClass(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return mcp.NewToolResultError("token must be a single class name"), nil
	}

	c := s.classifier.Classify(token)
	out := classifyResult{Token: token, Recognized: c.Recognized()}
	if !c.Recognized() {
		out.Suggestion = s.classifier.Suggest(token)
		return jsonResult(out)
	}

	tok := c.Token
	out.Variants = tok.Variants
	out.Important = tok.Important || tok.ImportantOnBase
	out.Negative = tok.Negative
	out.Base = tok.Base
	out.Value = tok.Value
	out.Modifier = tok.Modifier
	out.Kind = tok.Kind.String()
	out.Scale = tok.Scale
	out.Canonical = s.engine.Transformer().Transform(token, false).Output
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
