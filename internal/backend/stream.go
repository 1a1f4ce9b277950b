package backend

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const streamTerminator = "[DONE]"

// streamChunk models one server-sent event in a streaming chat completion.
type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Delta        streamDelta `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// streamDelta carries the incremental content of a chunk. Content is a
// pointer so an empty string can be distinguished from an absent field;
// both contribute nothing to the reduced result.
type streamDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// reduceStream consumes an SSE body and concatenates every delta's text
// in arrival order until the terminator. The chunk sequence is finite and
// non-restartable; no reordering or buffering happens beyond the
// concatenation itself.
func reduceStream(body io.Reader) (string, error) {
	var result strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == streamTerminator {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", &APIError{Message: "malformed stream chunk: " + err.Error()}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != nil {
			result.WriteString(*content)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", transportError("read completion stream", err)
	}

	return result.String(), nil
}
