package params

// UserForm поля формы регистрации, отдаваемые клиенту
type UserForm struct {
	Email                string `json:"email"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

// PaymentInfo данные для платежного виджета на клиенте. Amount в центах.
type PaymentInfo struct {
	PublishableKey string `json:"publishable_key"`
	Amount         int64  `json:"amount"`
	Description    string `json:"description"`
	Currency       string `json:"currency"`
}

// FormView форма регистрации вместе с данными для оплаты
type FormView struct {
	User    UserForm    `json:"user"`
	Payment PaymentInfo `json:"payment"`
}
