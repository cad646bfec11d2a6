package entity

import "time"

// Permission modules. Every gated route names one of these.
const (
	ModuleInquiry         = "inquiry"
	ModuleTechnicalPerson = "technical_person"
	ModuleProduct         = "product"
	ModuleCompanyPrice    = "company_price"
	ModuleQuotation       = "quotation"
	ModuleUsers           = "users"
	ModulePurchaseOrder   = "purchase_order"
)

// ValidModules is the accepted module set for permission grants.
var ValidModules = []string{
	ModuleInquiry, ModuleTechnicalPerson, ModuleProduct, ModuleCompanyPrice,
	ModuleQuotation, ModuleUsers, ModulePurchaseOrder,
}

// Permission actions.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// User is an operator account.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"size:200;not null;uniqueIndex"`
	Password string `json:"-" gorm:"size:100;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Roles []UserRole `json:"roles,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// UserRole is a free-form role label attached to a user.
type UserRole struct {
	ID     uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID uint   `json:"user_id" gorm:"not null;index"`
	Role   string `json:"role" gorm:"size:50;not null"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// Permission grants four independent capabilities on one module to one user.
type Permission struct {
	ID         uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_permission_user_module"`
	ModuleName string `json:"module_name" gorm:"size:30;not null;uniqueIndex:idx_permission_user_module"`
	CanCreate  bool   `json:"can_create" gorm:"not null;default:false"`
	CanRead    bool   `json:"can_read" gorm:"not null;default:true"`
	CanUpdate  bool   `json:"can_update" gorm:"not null;default:false"`
	CanDelete  bool   `json:"can_delete" gorm:"not null;default:false"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Allows reports whether the permission grants the given action.
func (p *Permission) Allows(action string) bool {
	switch action {
	case ActionCreate:
		return p.CanCreate
	case ActionRead:
		return p.CanRead
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	}
	return false
}
