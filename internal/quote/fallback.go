package quote

// fallbackPayload mirrors the upstream response shape and keeps the dashboard
// populated when the finance API is unreachable. Values are intentionally
// static; the engine marks snapshots built from it as degraded.
const fallbackPayload = `{
  "results": {
    "currencies": {
      "source": "BRL",
      "USD": {"name": "Dólar", "buy": 5.25, "sell": 5.26, "variation": -0.72},
      "EUR": {"name": "Euro", "buy": 6.12, "sell": 6.14, "variation": 0.35},
      "GBP": {"name": "Libra Esterlina", "buy": 7.08, "sell": 7.10, "variation": 0.12},
      "BTC": {"name": "Bitcoin", "buy": 498250.10, "sell": 498900.00, "variation": 1.84}
    },
    "stocks": {
      "IBOVESPA": {"name": "BM&F BOVESPA", "location": "Sao Paulo, Brazil", "points": 128430.55, "variation": 0.41},
      "NASDAQ": {"name": "NASDAQ Stock Market", "location": "New York City, United States", "points": 18342.94, "variation": -0.28},
      "CAC": {"name": "CAC 40", "location": "Paris, French", "points": 7620.33, "variation": 0.09},
      "NIKKEI": {"name": "Nikkei 225", "location": "Tokyo, Japan", "points": 38920.26, "variation": -0.65}
    }
  }
}`
