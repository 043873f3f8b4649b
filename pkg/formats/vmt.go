package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyVMTShader is returned when a material descriptor names no shader.
var ErrEmptyVMTShader = errors.New("VMT shader name is empty")

// VMTParam is one key/value pair of a material descriptor. Parameter order
// is preserved on output.
type VMTParam struct {
	Key   string
	Value string
}

// VMT represents a Source engine material descriptor.
type VMT struct {
	// Shader is the shader name, e.g. "VertexLitGeneric".
	Shader string
	// Comments are emitted as // lines before the shader block.
	Comments []string
	// Params are the shader parameters in output order.
	Params []VMTParam
}

// VMTOptions controls VMT encoding.
type VMTOptions struct {
	// Indent is the indentation of parameter lines (default four spaces).
	Indent string
}

// normalize normalizes the VMTOptions.
func (o *VMTOptions) normalize() VMTOptions {
	if o == nil {
		return VMTOptions{Indent: "    "}
	}

	out := *o
	if out.Indent == "" {
		out.Indent = "    "
	}
	return out
}

// EncodeVMT writes a material descriptor in Valve's KeyValues syntax.
func EncodeVMT(w io.Writer, vmt *VMT, opt *VMTOptions) error {
	fopt := opt.normalize()
	if vmt.Shader == "" {
		return ErrEmptyVMTShader
	}

	var sb strings.Builder
	for _, c := range vmt.Comments {
		sb.WriteString("// ")
		sb.WriteString(c)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\"%s\"\n{\n", vmt.Shader)
	for _, p := range vmt.Params {
		fmt.Fprintf(&sb, "%s\"%s\" \"%s\"\n", fopt.Indent, p.Key, p.Value)
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// EncodeVMTFile writes a material descriptor to disk.
func EncodeVMTFile(path string, vmt *VMT, opt *VMTOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating VMT file: %w", err)
	}
	if err := EncodeVMT(f, vmt, opt); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatVMT returns a material descriptor as a string.
func FormatVMT(vmt *VMT, opt *VMTOptions) (string, error) {
	var sb strings.Builder
	if err := EncodeVMT(&sb, vmt, opt); err != nil {
		return "", err
	}
	return sb.String(), nil
}
