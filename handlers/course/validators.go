package course

import "github.com/gamifylearn/gamification-api/utils/validation"

var courseIDParam = validation.Param("courseId").IsMongoID().WithMessage("Invalid course id")

var CreateCourseValidator = validation.Validate(
	validation.Body("title").NotEmpty().IsString().WithMessage("Please provide the title of the course"),
	validation.Body("objective").Optional().IsString().WithMessage("Objective must be a string"),
	validation.Body("price").NotEmpty().IsNumeric().WithMessage("Please provide the price of the course as a number"),
	validation.Body("duration").Optional().IsString().WithMessage("Duration must be a string"),
	validation.Body("lessonFormat").Optional().IsString().WithMessage("Lesson format must be a string"),
)

var CourseIDValidator = validation.Validate(courseIDParam)

var CreateCourseContentValidator = validation.Validate(
	courseIDParam,
	validation.Body("title").NotEmpty().IsString().WithMessage("Please provide the title of the content"),
	validation.Body("objectives").Optional().IsString().WithMessage("Objectives must be a string"),
	validation.Body("link").Optional().IsString().WithMessage("Link must be a string"),
	validation.OptionalFiles("files", 10),
)

var CreateAnnouncementValidator = validation.Validate(
	courseIDParam,
	validation.Body("title").NotEmpty().IsString().WithMessage("Please provide the title of the announcement"),
	validation.Body("details").NotEmpty().IsString().WithMessage("Please provide the details of the announcement"),
	validation.Body("courseList").Optional().IsArray().WithMessage("Course list must be an array").
		EachMongoID().WithMessage("Course list must contain valid course ids"),
	validation.Body("sendEmail").Optional().IsBoolean().WithMessage("sendEmail must be a boolean"),
)
