package api

// ErrorResponse is returned for every failed request. OrderUID is set when
// the order was posted before the failure and will expire unsigned.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	OrderUID  string `json:"orderUid,omitempty"`
	RequestID string `json:"requestId"`
}
