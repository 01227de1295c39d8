// Package stockfolio tracks a collection of equity holdings and values them
// against historical market data.
//
// A Portfolio records holdings (instrument, market, purchase date, shares and
// cost per share). Each holding is resolved against an instrument Catalog when
// it is added, then valued with the most recent daily close returned by a
// PriceProvider for the period running from the purchase date to today.
//
// The valuation policy is fixed: the current price of a holding is always the
// close of the latest trading day available, never an intraday quote, and its
// gross current value is that price multiplied by the number of shares. No
// currency conversion, fee or dividend is applied.
//
// The resulting Table is a snapshot of every row, in insertion order, with the
// columns stock_name, stock_country, purchase_date, num_of_shares,
// cost_per_share, current_price and gross_current_value. It is rebuilt as a
// whole after every successful AddHolding or Refresh; failed calls leave it
// untouched.
//
// Catalogs and providers for the EODHD API, Yahoo Finance and generic JSON
// endpoints live in the eodhd, yahoo and jsonfeed packages. The folio command
// (see package cmd) glues them together with a TOML holdings file.
package stockfolio
