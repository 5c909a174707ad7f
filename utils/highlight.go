package utils

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
)

// DefaultTheme is the chroma style used when none is configured.
const DefaultTheme = "monokai"

// SourceLanguage returns the chroma lexer name for fileName, or "" when no
// lexer claims the name.
func SourceLanguage(fileName string) string {
	lexer := lexers.Match(fileName)
	if lexer == nil {
		return ""
	}
	return lexer.Config().Name
}

// RenderSource writes source to w with terminal syntax highlighting chosen
// from fileName, stopping early when ctx is done.
func RenderSource(ctx context.Context, w io.Writer, fileName, source, theme string) error {
	if theme == "" {
		theme = DefaultTheme
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, SourceLanguage(fileName), "terminal256", theme); err != nil {
		return err
	}

	scanner := bufio.NewScanner(&buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for i := 0; scanner.Scan(); i++ {
		// Check for cancellation every few lines for responsive interruption
		if i%5 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if _, err := io.WriteString(w, scanner.Text()+"\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}
