// Package notify は接続中のユーザーへのリアルタイム通知を扱う。
package notify

type EventType string

const (
	// 注文したユーザー向け
	EventOrderConfirmation EventType = "ORDER_CONFIRMATION"
	// ベンダー向け
	EventNewOrder EventType = "NEW_ORDER"
	// ベンダーがステータスを進めたとき（ユーザー向け）
	EventOrderStatusUpdated EventType = "ORDER_STATUS_UPDATED"
	// ユーザーがキャンセルしたとき（ベンダー向け）
	EventOrderCancelled EventType = "ORDER_CANCELLED"
)

// Event はクライアントにそのままJSONで送る形
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
	OrderID string    `json:"orderId"`
}
