// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status статус запроса ("OK" или "Error").
// Поле Error текст ошибки (опционально, при неуспехе).
// Поле Errors сообщения валидации формы.
// Поле Data данные ответа (опционально).
type Response struct {
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Errors []string `json:"errors,omitempty"`
	Data   any      `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// FormError возвращает форму для повторного показа вместе с сообщениями валидации.
func FormError(form any, messages []string) Response {
	return Response{
		Status: StatusError,
		Error:  "validation failed",
		Errors: messages,
		Data:   form,
	}
}
