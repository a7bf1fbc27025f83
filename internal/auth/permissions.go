package auth

// Permission names a capability a role may exercise. The set is static and
// computed from the role on demand; it is never persisted.
type Permission string

const (
	PermViewOwnProfile           Permission = "can_view_own_profile"
	PermEditOwnProfile           Permission = "can_edit_own_profile"
	PermViewLease                Permission = "can_view_lease"
	PermViewBalance              Permission = "can_view_balance"
	PermPayRent                  Permission = "can_pay_rent"
	PermViewPaymentHistory       Permission = "can_view_payment_history"
	PermSubmitMaintenanceRequest Permission = "can_submit_maintenance_request"
	PermViewMaintenanceStatus    Permission = "can_view_maintenance_status"
	PermViewAnnouncements        Permission = "can_view_announcements"
	PermDownloadDocuments        Permission = "can_download_documents"
	PermReplyToMessages          Permission = "can_reply_to_messages"

	PermManageProperties     Permission = "can_manage_properties"
	PermManageTenants        Permission = "can_manage_tenants"
	PermManageLeases         Permission = "can_manage_leases"
	PermManageContractors    Permission = "can_manage_contractors"
	PermViewFinancialReports Permission = "can_view_financial_reports"
	PermSendMessages         Permission = "can_send_messages"
	PermSendSMS              Permission = "can_send_sms"
	PermManageSettings       Permission = "can_manage_settings"
	PermManageUsers          Permission = "can_manage_users"
)

var tenantPermissions = []Permission{
	PermViewOwnProfile,
	PermEditOwnProfile,
	PermViewLease,
	PermViewBalance,
	PermPayRent,
	PermViewPaymentHistory,
	PermSubmitMaintenanceRequest,
	PermViewMaintenanceStatus,
	PermViewAnnouncements,
	PermDownloadDocuments,
	PermReplyToMessages,
}

var contractorPermissions = []Permission{
	PermViewOwnProfile,
	PermViewMaintenanceStatus,
	PermReplyToMessages,
}

var managerPermissions = append([]Permission{
	PermManageProperties,
	PermManageTenants,
	PermManageLeases,
	PermManageContractors,
	PermViewFinancialReports,
	PermSendMessages,
	PermSendSMS,
	PermManageSettings,
	PermManageUsers,
}, tenantPermissions...)

// RolePermissions returns the capability set for a role.
func RolePermissions(role Role) map[Permission]bool {
	var list []Permission
	switch role {
	case RoleTenant:
		list = tenantPermissions
	case RoleContractor:
		list = contractorPermissions
	default:
		list = managerPermissions
	}
	set := make(map[Permission]bool, len(list))
	for _, p := range list {
		set[p] = true
	}
	return set
}

// Can reports whether a role holds a capability.
func Can(role Role, perm Permission) bool {
	return RolePermissions(role)[perm]
}
