package enums

// UserRole gates the admin and point-of-sale surfaces.
type UserRole string

const (
	UserRoleCustomer UserRole = "USER"
	UserRoleEmployee UserRole = "EMPLOYEE"
	UserRoleAdmin    UserRole = "ADMIN"
)

var userRoles = set[UserRole]{UserRoleCustomer, UserRoleEmployee, UserRoleAdmin}

func (r UserRole) String() string { return string(r) }
func (r UserRole) IsValid() bool  { return userRoles.has(r) }

// IsStaff reports whether the role may operate the point of sale.
func (r UserRole) IsStaff() bool {
	return r == UserRoleEmployee || r == UserRoleAdmin
}

func ParseUserRole(raw string) (UserRole, error) {
	return userRoles.parse("user role", raw)
}

// LocationType separates stock rooms from shops that also sell at a counter.
type LocationType string

const (
	LocationTypeWarehouse LocationType = "WAREHOUSE"
	LocationTypeOutlet    LocationType = "OUTLET"
)

var locationTypes = set[LocationType]{LocationTypeWarehouse, LocationTypeOutlet}

func (t LocationType) String() string { return string(t) }
func (t LocationType) IsValid() bool  { return locationTypes.has(t) }

func ParseLocationType(raw string) (LocationType, error) {
	return locationTypes.parse("location type", raw)
}
