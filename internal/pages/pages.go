// Package pages serves the storefront's fixed informational pages.
package pages

import (
	"strings"

	pkgerrors "github.com/roorreach/marketplace-backend/pkg/errors"
)

type Page struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

var catalog = map[string]Page{
	"about": {
		Slug:  "about",
		Title: "About RoorReach",
		Body: "RoorReach connects local producers with buyers across the country. " +
			"Sellers list their goods, buyers order directly, and every order is tracked from confirmation to delivery.",
	},
	"policies": {
		Slug:  "policies",
		Title: "Marketplace Policies",
		Body: "Orders may be cancelled by the buyer while pending or confirmed. " +
			"Cancelled orders return their items to the seller's stock. " +
			"Chat messages must not share phone numbers, email addresses or other contact details.",
	},
	"terms-conditions": {
		Slug:  "terms-conditions",
		Title: "Terms & Conditions",
		Body: "By using RoorReach you agree to provide accurate account and shipping information. " +
			"Seller accounts are granted after an application is reviewed and approved by an administrator. " +
			"Reviews may only be posted by buyers with a confirmed purchase of the product.",
	},
}

// Get returns the page registered under slug.
func Get(slug string) (*Page, error) {
	page, ok := catalog[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
	}
	return &page, nil
}
