package agenda_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/agenda-management/internal/agenda"
)

var _ = Describe("SearchFilter", func() {
	Describe("Normalize", func() {
		It("defaults an unset limit to 20", func() {
			f := agenda.SearchFilter{}.Normalize()
			Expect(f.Limit).To(Equal(20))
			Expect(f.Offset).To(Equal(0))
		})

		It("caps an oversized limit back to the default", func() {
			f := agenda.SearchFilter{Limit: 500}.Normalize()
			Expect(f.Limit).To(Equal(20))
		})

		It("keeps a sane limit and clamps a negative offset", func() {
			f := agenda.SearchFilter{Limit: 50, Offset: -3}.Normalize()
			Expect(f.Limit).To(Equal(50))
			Expect(f.Offset).To(Equal(0))
		})
	})

	Describe("BuildQuery", func() {
		It("builds a bare listing when no predicates are set", func() {
			sql, args, err := agenda.SearchFilter{}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).ToNot(ContainSubstring("WHERE"))
			Expect(sql).To(ContainSubstring("FROM agendas"))
			Expect(sql).To(ContainSubstring("ORDER BY tanggal DESC, waktu DESC"))
			Expect(sql).To(ContainSubstring("LIMIT 20"))
			Expect(args).To(BeEmpty())
		})

		It("matches the query text against judul, deskripsi and tempat", func() {
			sql, args, err := agenda.SearchFilter{Query: "rapat"}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).To(ContainSubstring("judul LIKE ?"))
			Expect(sql).To(ContainSubstring("deskripsi LIKE ?"))
			Expect(sql).To(ContainSubstring("tempat LIKE ?"))
			Expect(sql).To(ContainSubstring(" OR "))
			Expect(args).To(ConsistOf("%rapat%", "%rapat%", "%rapat%"))
		})

		It("combines status, owner and date bounds", func() {
			creator := int64(7)
			from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

			sql, args, err := agenda.SearchFilter{
				Status:    agenda.StatusApproved,
				CreatedBy: &creator,
				DateFrom:  &from,
				DateTo:    &to,
			}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).To(ContainSubstring("status = ?"))
			Expect(sql).To(ContainSubstring("created_by = ?"))
			Expect(sql).To(ContainSubstring("tanggal >= ?"))
			Expect(sql).To(ContainSubstring("tanggal <= ?"))
			Expect(args).To(Equal([]interface{}{agenda.StatusApproved, creator, "2025-01-01", "2025-01-31"}))
		})

		It("restricts to the approved set when scoped for a viewer", func() {
			sql, args, err := agenda.SearchFilter{ApprovedOnly: true}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).To(ContainSubstring("status = ?"))
			Expect(args).To(Equal([]interface{}{agenda.StatusApproved}))
		})

		It("widens the approved set with the owner's rows when scoped for an owner", func() {
			owner := int64(2)
			sql, args, err := agenda.SearchFilter{OwnerOrApproved: &owner}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).To(ContainSubstring("(status = ? OR created_by = ?)"))
			Expect(args).To(Equal([]interface{}{agenda.StatusApproved, owner}))
		})

		It("intersects the visibility scope with a requested status", func() {
			sql, args, err := agenda.SearchFilter{Status: agenda.StatusPending, ApprovedOnly: true}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).To(ContainSubstring("status = ? AND status = ?"))
			Expect(args).To(Equal([]interface{}{agenda.StatusPending, agenda.StatusApproved}))
		})

		It("paginates through limit and offset", func() {
			sql, _, err := agenda.SearchFilter{Limit: 10, Offset: 30}.Normalize().BuildQuery()

			Expect(err).ToNot(HaveOccurred())
			Expect(sql).To(ContainSubstring("LIMIT 10"))
			Expect(sql).To(ContainSubstring("OFFSET 30"))
		})
	})
})
