package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// ToolParam 描述工具的一个参数。Type 取 "string" 或 "integer"。
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Tool 描述一个模型可调用的函数工具。
// Handle 在模型回合内同步执行，返回的字符串回传给模型并融入最终回复。
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
	Handle      func(ctx context.Context, args map[string]any) string
}

// declarations 将工具定义转换为 genai 的函数声明。
func declarations(tools []Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]*genai.Schema, len(t.Params))
		var required []string
		for _, p := range t.Params {
			typ := genai.TypeString
			if p.Type == "integer" {
				typ = genai.TypeInteger
			}
			props[p.Name] = &genai.Schema{Type: typ, Description: p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// dispatch 执行模型发起的一次工具调用，找不到对应工具时返回错误文案。
func dispatch(ctx context.Context, tools []Tool, call *genai.FunctionCall) string {
	for _, t := range tools {
		if t.Name == call.Name {
			return t.Handle(ctx, call.Args)
		}
	}
	return fmt.Sprintf("Error: unknown tool %q", call.Name)
}
