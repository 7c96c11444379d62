package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("PermissionChecker", func() {
	ginkgo.Describe("HasPermission", func() {
		ginkgo.Context("for the admin role", func() {
			ginkgo.It("should hold every management capability", func() {
				actions := []string{
					ActionCreateAgenda, ActionEditAgenda, ActionDeleteAgenda,
					ActionApproveAgenda, ActionRejectAgenda, ActionViewPending,
					ActionViewAllAgendas, ActionCreateUser, ActionEditUser,
					ActionDeleteUser, ActionViewStats, ActionViewActivities,
				}
				for _, action := range actions {
					gomega.Expect(HasPermission("admin", action)).To(gomega.BeTrue(), action)
				}
			})

			ginkgo.It("should not hold the scoped variants reserved for other roles", func() {
				gomega.Expect(HasPermission("admin", ActionEditOwnAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("admin", ActionViewOwnAgendas)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("admin", ActionViewApprovedAgendas)).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("for the guru role", func() {
			ginkgo.It("should create and manage only its own agendas", func() {
				gomega.Expect(HasPermission("guru", ActionCreateAgenda)).To(gomega.BeTrue())
				gomega.Expect(HasPermission("guru", ActionEditOwnAgenda)).To(gomega.BeTrue())
				gomega.Expect(HasPermission("guru", ActionViewOwnAgendas)).To(gomega.BeTrue())
			})

			ginkgo.It("should not approve, reject or administer users", func() {
				gomega.Expect(HasPermission("guru", ActionApproveAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("guru", ActionRejectAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("guru", ActionEditAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("guru", ActionDeleteAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("guru", ActionCreateUser)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("guru", ActionViewActivities)).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("for the siswa role", func() {
			ginkgo.It("should only view approved agendas", func() {
				gomega.Expect(HasPermission("siswa", ActionViewApprovedAgendas)).To(gomega.BeTrue())
				gomega.Expect(HasPermission("siswa", ActionCreateAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("siswa", ActionViewPending)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("siswa", ActionViewAllAgendas)).To(gomega.BeFalse())
			})
		})

		ginkgo.Context("for unknown input", func() {
			ginkgo.It("should deny unknown roles", func() {
				gomega.Expect(HasPermission("superuser", ActionCreateAgenda)).To(gomega.BeFalse())
				gomega.Expect(HasPermission("", ActionCreateAgenda)).To(gomega.BeFalse())
			})

			ginkgo.It("should deny unknown actions", func() {
				gomega.Expect(HasPermission("admin", "format_disk")).To(gomega.BeFalse())
				gomega.Expect(HasPermission("admin", "")).To(gomega.BeFalse())
			})
		})
	})

	ginkgo.Describe("HasAnyPermission", func() {
		ginkgo.It("should pass when at least one action matches", func() {
			gomega.Expect(HasAnyPermission("siswa", ActionViewAllAgendas, ActionViewApprovedAgendas)).To(gomega.BeTrue())
		})

		ginkgo.It("should deny when no action matches", func() {
			gomega.Expect(HasAnyPermission("siswa", ActionCreateAgenda, ActionViewPending)).To(gomega.BeFalse())
		})

		ginkgo.It("should deny an empty action list", func() {
			gomega.Expect(HasAnyPermission("admin")).To(gomega.BeFalse())
		})
	})
})
