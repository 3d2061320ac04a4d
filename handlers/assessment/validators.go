package assessment

import (
	"errors"

	"github.com/gamifylearn/gamification-api/utils/validation"
)

func objectIDParam(name, message string) *validation.FieldChain {
	return validation.Param(name).Optional().IsMongoID().WithMessage(message)
}

// markingGuide checks the decoded rubric, one message per failing property
func markingGuide(value any, _ *validation.Input) error {
	guide, ok := value.(map[string]any)
	if !ok || guide == nil {
		return errors.New("Marking guide must be an object")
	}

	if q, ok := guide["question"].(string); !ok || q == "" {
		return errors.New("Marking guide must contain a valid question")
	}

	if a, ok := guide["expectedAnswer"].(string); !ok || a == "" {
		return errors.New("Marking guide must contain a valid expectedAnswer")
	}

	keywords, ok := guide["keywords"].([]any)
	if !ok {
		return errors.New("Keywords must be an array of strings")
	}
	for _, k := range keywords {
		if _, ok := k.(string); !ok {
			return errors.New("All keywords must be valid strings")
		}
	}
	return nil
}

var CreateAssessmentValidator = validation.Validate(
	objectIDParam("instructorId", "Invalid organization id"),
	objectIDParam("courseId", "Invalid course id"),
	validation.Body("title").NotEmpty().IsString().WithMessage("Please provide the title of the assessment"),
	validation.Body("question").NotEmpty().IsString().WithMessage("Question is a required field"),
	validation.Body("highestAttainableScore").NotEmpty().IsNumeric().
		WithMessage("Please provide the highest attaniable score and as an integer"),
	validation.Body("markingGuide").Optional().DecodeJSON().Custom(markingGuide),
	validation.OptionalFile("file", validation.AllowedFileTypes...),
)

var SubmissionValidator = validation.Validate(
	objectIDParam("learnerId", "Invalid learner id"),
	objectIDParam("assessmentId", "Invalid assessment id"),
	validation.Body("answerText").NotEmpty().IsString().
		WithMessage("Please provide the title of the assessment as a text"),
	validation.OptionalFile("file", validation.AllowedFileTypes...),
)

var GradeSubmissionValidator = validation.Validate(
	objectIDParam("submissionId", "Invalid submission id"),
	objectIDParam("instructorId", "Invalid instructor id"),
	validation.Body("score").NotEmpty().IsNumeric().WithMessage("Please provide the score as an integer"),
	validation.Body("comments").Optional().IsString(),
	validation.Body("useAI").NotEmpty().IsBoolean().
		WithMessage("Please select if you want learners' submissions to be graded automatically or manually"),
)

var ViewLearnersValidator = validation.Validate(
	objectIDParam("assessmentId", "Invalid assessment id"),
	objectIDParam("instructorId", "Invalid instructor id"),
)

var SubmissionIDValidator = validation.Validate(
	objectIDParam("submissionId", "Invalid submission id"),
)
