package http

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"churnserve/data"
	"churnserve/pipeline"
)

// CustomerData 客户原始记录（customerID 与 Churn 除外），由 ValidateCustomer 校验。
// 未知字段被忽略。
type CustomerData map[string]any

type fieldKind int

const (
	enumField fieldKind = iota
	intField
	floatField
	// 数值或字符串；字符串按清洗规则转换，无法解析时为 0
	chargesField
)

type fieldSpec struct {
	name    string
	kind    fieldKind
	choices []string
}

var (
	yesNo         = []string{"Yes", "No"}
	internetAddOn = []string{"No internet service", "No", "Yes"}
)

var customerFields = []fieldSpec{
	{name: "gender", kind: enumField, choices: []string{"Male", "Female"}},
	{name: "SeniorCitizen", kind: intField},
	{name: "Partner", kind: enumField, choices: yesNo},
	{name: "Dependents", kind: enumField, choices: yesNo},
	{name: "tenure", kind: intField},
	{name: "PhoneService", kind: enumField, choices: yesNo},
	{name: "MultipleLines", kind: enumField, choices: []string{"No phone service", "No", "Yes"}},
	{name: "InternetService", kind: enumField, choices: []string{"DSL", "Fiber optic", "No"}},
	{name: "OnlineSecurity", kind: enumField, choices: internetAddOn},
	{name: "OnlineBackup", kind: enumField, choices: internetAddOn},
	{name: "DeviceProtection", kind: enumField, choices: internetAddOn},
	{name: "TechSupport", kind: enumField, choices: internetAddOn},
	{name: "StreamingTV", kind: enumField, choices: internetAddOn},
	{name: "StreamingMovies", kind: enumField, choices: internetAddOn},
	{name: "Contract", kind: enumField, choices: []string{"Month-to-month", "One year", "Two year"}},
	{name: "PaperlessBilling", kind: enumField, choices: yesNo},
	{name: "PaymentMethod", kind: enumField, choices: []string{
		"Electronic check", "Mailed check", "Bank transfer (automatic)", "Credit card (automatic)",
	}},
	{name: "MonthlyCharges", kind: floatField},
	{name: "TotalCharges", kind: chargesField},
}

// ValidationIssue 单个字段的校验错误
type ValidationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationError 请求校验失败，对应 422 响应
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%v: %s", issue.Loc, issue.Msg)
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func bodyIssue(msg, kind string) *ValidationError {
	return &ValidationError{Issues: []ValidationIssue{{Loc: []any{"body"}, Msg: msg, Type: kind}}}
}

// ValidateCustomer 校验全部字段并转换为 data.Record；所有错误一次性返回。
func ValidateCustomer(payload CustomerData) (data.Record, error) {
	if payload == nil {
		return data.Record{}, bodyIssue("Input should be a valid object", "model_attributes_type")
	}

	record := data.NewRecord()
	var issues []ValidationIssue
	for _, field := range customerFields {
		value, present := payload[field.name]
		if !present {
			issues = append(issues, ValidationIssue{
				Loc: []any{"body", field.name}, Msg: "Field required", Type: "missing",
			})
			continue
		}

		var issue *ValidationIssue
		switch field.kind {
		case enumField:
			var text string
			text, issue = validateEnum(value, field.choices)
			record.Texts[field.name] = text
		case intField:
			var number float64
			number, issue = validateInt(value)
			record.Numbers[field.name] = number
		case floatField:
			var number float64
			number, issue = validateFloat(value)
			record.Numbers[field.name] = number
		case chargesField:
			var number float64
			number, issue = validateCharges(value)
			record.Numbers[field.name] = number
		}
		if issue != nil {
			issue.Loc = []any{"body", field.name}
			issues = append(issues, *issue)
		}
	}
	if len(issues) > 0 {
		return data.Record{}, &ValidationError{Issues: issues}
	}
	return record, nil
}

func validateEnum(value any, choices []string) (string, *ValidationIssue) {
	if text, ok := value.(string); ok {
		for _, choice := range choices {
			if text == choice {
				return text, nil
			}
		}
	}
	quoted := make([]string, len(choices))
	for i, choice := range choices {
		quoted[i] = "'" + choice + "'"
	}
	msg := "Input should be " + strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
	return "", &ValidationIssue{Msg: msg, Type: "literal_error"}
}

func validateInt(value any) (float64, *ValidationIssue) {
	var number float64
	switch v := value.(type) {
	case float64:
		number = v
	case string:
		parsed, err := cast.ToFloat64E(strings.TrimSpace(v))
		if err != nil {
			return 0, &ValidationIssue{Msg: "Input should be a valid integer, unable to parse string as an integer", Type: "int_parsing"}
		}
		number = parsed
	default:
		return 0, &ValidationIssue{Msg: "Input should be a valid integer", Type: "int_type"}
	}
	if math.IsNaN(number) || math.IsInf(number, 0) || number != math.Trunc(number) {
		return 0, &ValidationIssue{Msg: "Input should be a valid integer, got a number with a fractional part", Type: "int_from_float"}
	}
	return number, nil
}

func validateFloat(value any) (float64, *ValidationIssue) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		if number, ok := pipeline.CoerceNumber(v); ok {
			return number, nil
		}
		return 0, &ValidationIssue{Msg: "Input should be a valid number, unable to parse string as a number", Type: "float_parsing"}
	default:
		return 0, &ValidationIssue{Msg: "Input should be a valid number", Type: "float_type"}
	}
}

func validateCharges(value any) (float64, *ValidationIssue) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		number, _ := pipeline.CoerceNumber(v)
		return number, nil
	default:
		return 0, &ValidationIssue{Msg: "Input should be a valid number or string", Type: "union_type"}
	}
}
