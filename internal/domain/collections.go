package domain

// Document store collections.
const (
	CollectionProducts      = "products"
	CollectionCategories    = "categories"
	CollectionOrders        = "orders"
	CollectionUsers         = "users"
	CollectionNotifications = "notifications"
	CollectionSettings      = "settings"
)

// Collections lists every collection, in the order admin search reports them.
var Collections = []string{
	CollectionProducts,
	CollectionCategories,
	CollectionOrders,
	CollectionUsers,
	CollectionNotifications,
	CollectionSettings,
}

// IsCollection reports whether name is a known collection.
func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
