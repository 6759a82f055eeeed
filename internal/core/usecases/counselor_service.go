package usecases

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mahi13singh2004/AIKYAM/internal/core/ports"
)

const counselorContext = "You are a virtual counselor specialized in women's safety, health, and emergency assistance." +
	"Do give breif answers.  Reply in paragraph no bullet points neeeded, be friendly and do lighthearted conversations, " +
	"keep around 1-2 lines and at the end, be happy and make other feel jolly"

const safetyTipsHeading = "**Women's Safety Tips**"

// ErrEmptyMessage is returned for a blank counselor question.
var ErrEmptyMessage = errors.New("message is required")

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	numberedItem   = regexp.MustCompile(`(\d+\.)\s*`)
	newlineRun     = regexp.MustCompile(`\n+`)
	numberedPrefix = regexp.MustCompile(`^(\d+)\.\s`)
)

// CounselorService answers safety questions through a chat model.
type CounselorService struct {
	model ports.ChatModel
}

// NewCounselorService creates a new CounselorService.
func NewCounselorService(model ports.ChatModel) *CounselorService {
	return &CounselorService{model: model}
}

// Ask sends message to the model and returns the formatted reply.
func (s *CounselorService) Ask(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	reply, err := s.model.Complete(ctx, counselorContext+"\n\nUser's question: "+message)
	if err != nil {
		return "", fmt.Errorf("counselor completion: %w", err)
	}
	return FormatCounselorReply(reply), nil
}

// FormatCounselorReply normalises a model reply into a single line. Numbered
// items keep their numbers and loose lines continue the numbering. A line
// opening with the safety-tips heading is reduced to the plain heading.
func FormatCounselorReply(text string) string {
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	text = numberedItem.ReplaceAllString(text, "\n$1 ")
	text = strings.TrimSpace(newlineRun.ReplaceAllString(text, "\n"))

	var out []string
	next := 1
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, safetyTipsHeading):
			out = append(out, "Women's Safety Tips")
		case numberedPrefix.MatchString(line):
			n, _ := strconv.Atoi(numberedPrefix.FindStringSubmatch(line)[1])
			next = n + 1
			out = append(out, line)
		default:
			out = append(out, fmt.Sprintf("%d. %s", next, line))
			next++
		}
	}
	return strings.Join(out, " ")
}
