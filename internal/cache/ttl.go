package cache

import (
	"fmt"
	"time"
)

// Per-resource TTL policy. Volatile per-auction collections turn over within a
// window, so they get short TTLs; reference data changes rarely.
const (
	TTLAuctions        = 30 * time.Second
	TTLAuctionProducts = 15 * time.Second
	TTLAuctionRole     = 15 * time.Second
	TTLMyProducts      = 30 * time.Second

	TTLCategories   = 12 * time.Hour
	TTLGovernorates = 12 * time.Hour
)

// Key builders and invalidation tags. Every per-auction key carries the
// auction tag so one registration or product mutation can clear the whole
// dependent set.

func AuctionsKey() string { return "auctions" }

func AuctionProductsKey(auctionID string) string {
	return fmt.Sprintf("auction_products:%s", auctionID)
}

func AuctionRoleKey(auctionID, participantID string) string {
	return fmt.Sprintf("auction_role:%s:%s", auctionID, participantID)
}

func UserProductsKey(userID string) string {
	return fmt.Sprintf("user_products:%s", userID)
}

func UserAuctionProductsKey(auctionID, userID string) string {
	return fmt.Sprintf("auction_user_products:%s:%s", auctionID, userID)
}

func CategoriesKey() string   { return "categories" }
func GovernoratesKey() string { return "governorates" }

func AuctionTag(auctionID string) string {
	return fmt.Sprintf("auction:%s", auctionID)
}

func AuctionRoleTag(auctionID, participantID string) string {
	return fmt.Sprintf("auction_role:%s:%s", auctionID, participantID)
}

func UserTag(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

const (
	CategoriesTag   = "categories"
	GovernoratesTag = "governorates"
	AuctionsTag     = "auctions"
)
