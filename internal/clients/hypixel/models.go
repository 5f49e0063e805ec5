package hypixel

// BazaarResponse is the /v2/skyblock/bazaar payload.
type BazaarResponse struct {
	Success     bool                     `json:"success"`
	Cause       string                   `json:"cause,omitempty"`
	LastUpdated int64                    `json:"lastUpdated"`
	Products    map[string]BazaarProduct `json:"products"`
}

// BazaarProduct is one bazaar product entry.
type BazaarProduct struct {
	ProductID   string      `json:"product_id"`
	QuickStatus QuickStatus `json:"quick_status"`
}

// QuickStatus holds the aggregated order book figures.
// sellPrice is what instant-sellers receive, buyPrice what instant-buyers pay.
type QuickStatus struct {
	ProductID      string  `json:"productId"`
	SellPrice      float64 `json:"sellPrice"`
	SellVolume     int64   `json:"sellVolume"`
	SellMovingWeek int64   `json:"sellMovingWeek"`
	SellOrders     int64   `json:"sellOrders"`
	BuyPrice       float64 `json:"buyPrice"`
	BuyVolume      int64   `json:"buyVolume"`
	BuyMovingWeek  int64   `json:"buyMovingWeek"`
	BuyOrders      int64   `json:"buyOrders"`
}

// ItemsResponse is the /v2/resources/skyblock/items payload.
type ItemsResponse struct {
	Success     bool   `json:"success"`
	LastUpdated int64  `json:"lastUpdated"`
	Items       []Item `json:"items"`
}

// Item is one catalog entry.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Material string `json:"material,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

type profilesResponse struct {
	Success  bool          `json:"success"`
	Cause    string        `json:"cause,omitempty"`
	Profiles []profileBody `json:"profiles"`
}

type profileResponse struct {
	Success bool         `json:"success"`
	Cause   string       `json:"cause,omitempty"`
	Profile *profileBody `json:"profile"`
}

type profileBody struct {
	ProfileID string                `json:"profile_id"`
	CuteName  string                `json:"cute_name"`
	Selected  bool                  `json:"selected"`
	Banking   *banking              `json:"banking,omitempty"`
	Members   map[string]memberBody `json:"members"`
}

type banking struct {
	Balance float64 `json:"balance"`
}

type memberBody struct {
	Currencies *struct {
		CoinPurse *float64 `json:"coin_purse"`
	} `json:"currencies,omitempty"`
	CoinPurse *float64 `json:"coin_purse,omitempty"`
	Banking   *banking `json:"banking,omitempty"`
}
