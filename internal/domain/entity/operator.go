package entity

// Operator оператор участка, общающийся с ботом
type Operator struct {
	ID         int64 // Telegram User ID
	ChatID     int64 // Telegram Chat ID
	Subscribed bool  // получает уведомления о связи с ПЛК
}

// NewOperator создаёт оператора без подписки
func NewOperator(userID, chatID int64) *Operator {
	return &Operator{
		ID:     userID,
		ChatID: chatID,
	}
}

// SetSubscribed включает или выключает уведомления
func (o *Operator) SetSubscribed(on bool) {
	o.Subscribed = on
}
