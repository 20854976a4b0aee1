package model

import "time"

// OrderPostedEvent is emitted once the order book has accepted an order and
// returned its uid. The order is not fillable until the presignature lands on-chain.
type OrderPostedEvent struct {
	EventID    string    `json:"event_id"`
	ChainID    uint64    `json:"chain_id"`
	OrderUID   string    `json:"order_uid"`
	Owner      string    `json:"owner"`
	SellToken  string    `json:"sell_token"`
	BuyToken   string    `json:"buy_token"`
	SellAmount string    `json:"sell_amount"`
	BuyAmount  string    `json:"buy_amount"`
	ValidTo    uint32    `json:"valid_to"`
	OrderURL   string    `json:"order_url"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrderBundleFailedEvent reports an order that exists on the order book but
// whose signable bundle could not be produced. It will expire unsigned.
type OrderBundleFailedEvent struct {
	EventID   string    `json:"event_id"`
	ChainID   uint64    `json:"chain_id"`
	OrderUID  string    `json:"order_uid"`
	Owner     string    `json:"owner"`
	Stage     string    `json:"stage"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// EndpointsRefreshedEvent is emitted after the periodic chain endpoint refresh.
type EndpointsRefreshedEvent struct {
	Chains     []uint64  `json:"chains"`
	Failed     []uint64  `json:"failed,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
