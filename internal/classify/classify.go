// Package classify sends article text to an LLM for two judgments: a summary
// and an existential-importance determination. Both calls use a strict JSON
// contract; a response carrying a non-null "error" field is a failure no
// matter what else it contains, and parse failures never degrade to guessed
// defaults.
package classify

import (
	"context"
	"fmt"
	"strings"
)

// Importance is the parsed result of the importance check.
type Importance struct {
	Important      bool
	Reasoning      string
	HighImportance bool
}

// Classifier is implemented by each model backend.
type Classifier interface {
	Summarize(ctx context.Context, content string) (string, error)
	CheckImportance(ctx context.Context, title, summary string) (Importance, error)
}

// Wire schemas shared by both backends.

type summaryResponse struct {
	Summary string  `json:"summary"`
	Error   *string `json:"error"`
}

type importanceResponse struct {
	ExistentialImportanceBool      bool    `json:"existential_importance_bool"`
	ExistentialImportanceReasoning string  `json:"existential_importance_reasoning"`
	HighImportanceBool             bool    `json:"high_importance_bool"`
	Error                          *string `json:"error"`
}

func summarizePrompt(content string) string {
	return `The json API endpoint returns a {summary, error} object, like {summary: "The article is about xyz", error: null}. ` +
		`The summary contains, as a string, first a general summary of the contents of the article in two paragraphs or less, ` +
		`and then an outline with the most salient, new and informative facts in an additional paragraph. ` +
		`The summary just states the contents of the article, and doesn't say "The article says" or similar introductions. ` +
		"For example, given the following article\n\n<INPUT>" + content + "</INPUT>\n\n" +
		`The output is as follows (as a reminder, the json API endpoint returns a {summary, error} object, ` +
		`like {summary: "The article is about xyz", error: null}. The summary contains, as a string, ` +
		`first a general summary of the article in two paragraphs or less, and then an outline outlines ` +
		`the most salient, new and informative facts in an additional paragraph):`
}

func importancePrompt(title, summary string) string {
	snippet := "# " + title + "\n\n" + summary
	return "The existential importance json API endpoint returns a {existential_importance_reasoning, " +
		"existential_importance_bool, high_importance_bool, error} object.\n\n" +
		"The existential_importance_reasoning field contains, as a string, a determination of whether " +
		"the input describes an event of global importance. existential_importance_bool contains the result " +
		"of that determination as a true/false boolean. high_importance_bool contains, as a true/false boolean, " +
		"whether the event is highly important, even if it is not of \"existential\" importance.\n\n" +
		"Items are of existential importance if:\n" +
		"- They involve more than a hundred deaths.\n" +
		"- They involve many cases of a sickness that might spread, or a new pathogen\n" +
		"- They involve conflict between nuclear powers\n" +
		"- They involve conflict that could escalate into global conflict, even if it hasn't already\n" +
		"- They involve terrorist groups displaying new capabilities\n" +
		"- ... and in general, if they involve events that could threaten humanity as a whole\n\n" +
		"For a longer example, given the following item\n\n<INPUT>" + snippet + "</INPUT>\n\n" +
		"The output is as follows: (As a reminder, the existential importance json API endpoint returns a " +
		"{existential_importance_reasoning, existential_importance_bool, high_importance_bool, error} object, " +
		"opinion pieces, or editorials are not categorized as existentially important.)\n"
}

// cleanJSONResponse strips the code fences some models wrap around JSON
// output even in JSON mode.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// modelError turns a present, non-null error field into a failure, no matter
// what the rest of the response holds.
func modelError(field *string) error {
	if field != nil {
		return fmt.Errorf("model reported error: %s", *field)
	}
	return nil
}
