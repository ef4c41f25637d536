// Package response предоставляет утилиты для формирования стандартных
// JSON-ответов HTTP API. Использование этих хелперов обеспечивает
// единообразие формата ответов во всем приложении: успешный ответ несет
// поле `message`, ответ с ошибкой - поле `error`.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response - это базовая структура для всех JSON-ответов.
// Заполняется только одно из полей.
type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK создает стандартный успешный ответ с текстовым сообщением.
func OK(msg string) Response {
	return Response{
		Message: msg,
	}
}

// Error создает стандартный ответ с ошибкой.
// Принимает сообщение об ошибке, которое будет включено в ответ.
func Error(msg string) Response {
	return Response{
		Error: msg,
	}
}

// ValidationError форматирует ошибки валидации от `go-playground/validator`
// в читаемый для пользователя вид.
// Функция итерируется по всем ошибкам валидации и создает
// понятные сообщения для каждой из них.
func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		// Сюда можно добавлять обработку других тегов валидации.
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Error: strings.Join(errMsgs, ", "),
	}
}
