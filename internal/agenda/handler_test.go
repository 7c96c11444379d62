package agenda_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/agenda"
	agendaPostgres "github.com/frahmantamala/agenda-management/internal/agenda/postgres"
	"github.com/frahmantamala/agenda-management/internal/transport"
)

type sqliteAgenda struct {
	ID              int64      `gorm:"primaryKey"`
	Judul           string     `gorm:"column:judul;not null"`
	Deskripsi       string     `gorm:"column:deskripsi"`
	Tanggal         time.Time  `gorm:"column:tanggal;type:date"`
	Waktu           string     `gorm:"column:waktu"`
	Tempat          string     `gorm:"column:tempat"`
	Status          string     `gorm:"column:status;default:'pending'"`
	CreatedBy       int64      `gorm:"column:created_by;not null"`
	ApprovedBy      *int64     `gorm:"column:approved_by"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (sqliteAgenda) TableName() string {
	return "agendas"
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Agenda Handler Integration", func() {
	var (
		db      *gorm.DB
		service *agenda.Service
		handler *agenda.Handler
		admin   *internal.SessionUser
		guru    *internal.SessionUser
	)

	requestAs := func(actor *internal.SessionUser, method, target, body string, params map[string]string) *http.Request {
		var reader *strings.Reader
		if body == "" {
			reader = strings.NewReader("")
		} else {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)

		ctx := req.Context()
		if actor != nil {
			ctx = internal.ContextWithUser(ctx, actor)
		}
		if len(params) > 0 {
			rctx := chi.NewRouteContext()
			for k, v := range params {
				rctx.URLParams.Add(k, v)
			}
			ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
		}
		return req.WithContext(ctx)
	}

	createPending := func(actor *internal.SessionUser) *agenda.Agenda {
		a, err := service.Create(context.Background(), agenda.AgendaDTO{
			Judul:   "Rapat",
			Tanggal: "2025-01-10",
			Waktu:   "09:00",
			Tempat:  "Aula",
		}, actor, "10.0.0.1", "test")
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&sqliteAgenda{})
		Expect(err).NotTo(HaveOccurred())

		slogger := testLogger()
		repo := agendaPostgres.NewRepository(db)
		service = agenda.NewService(repo, nil, slogger)
		handler = &agenda.Handler{
			BaseHandler: transport.NewBaseHandler(slogger),
			Service:     service,
		}

		admin = &internal.SessionUser{ID: 1, Email: "kepala@smkn1kotabekasi.admin.sch.id", Role: "admin"}
		guru = &internal.SessionUser{ID: 2, Email: "budi@smkn1kotabekasi.guru.sch.id", Role: "guru"}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("POST /agendas", func() {
		It("should create a pending agenda and answer 201", func() {
			body := `{"judul":"Rapat","tanggal":"2025-01-10","waktu":"09:00","tempat":"Aula"}`
			req := requestAs(guru, http.MethodPost, "/agendas", body, nil)
			w := httptest.NewRecorder()

			handler.CreateAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Success).To(BeTrue())
			Expect(env.Message).To(Equal("agenda berhasil dibuat"))

			data, ok := env.Data.(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(data["status"]).To(Equal("pending"))
			Expect(data["tanggal"]).To(Equal("2025-01-10"))
		})

		It("should answer 422 for a payload that fails validation", func() {
			body := `{"judul":"","tanggal":"2025-01-10","waktu":"09:00","tempat":"Aula"}`
			req := requestAs(guru, http.MethodPost, "/agendas", body, nil)
			w := httptest.NewRecorder()

			handler.CreateAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("should answer 401 without a session user", func() {
			body := `{"judul":"Rapat","tanggal":"2025-01-10","waktu":"09:00","tempat":"Aula"}`
			req := requestAs(nil, http.MethodPost, "/agendas", body, nil)
			w := httptest.NewRecorder()

			handler.CreateAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("PUT /agendas/{id}/approve", func() {
		It("should approve a pending agenda", func() {
			created := createPending(guru)
			req := requestAs(admin, http.MethodPut, "/agendas/1/approve", "", map[string]string{
				"id": strconv.FormatInt(created.ID, 10),
			})
			w := httptest.NewRecorder()

			handler.ApproveAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			data := env.Data.(map[string]interface{})
			Expect(data["status"]).To(Equal("approved"))
			Expect(data["approved_by"]).To(BeNumerically("==", 1))
		})

		It("should answer 409 when the agenda is already resolved", func() {
			created := createPending(guru)
			_, err := service.Approve(context.Background(), created.ID, admin, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())

			req := requestAs(admin, http.MethodPut, "/agendas/1/approve", "", map[string]string{
				"id": strconv.FormatInt(created.ID, 10),
			})
			w := httptest.NewRecorder()

			handler.ApproveAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})

		It("should answer 404 for an unknown agenda", func() {
			req := requestAs(admin, http.MethodPut, "/agendas/99999/approve", "", map[string]string{"id": "99999"})
			w := httptest.NewRecorder()

			handler.ApproveAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should answer 400 for a non-numeric id", func() {
			req := requestAs(admin, http.MethodPut, "/agendas/abc/approve", "", map[string]string{"id": "abc"})
			w := httptest.NewRecorder()

			handler.ApproveAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PUT /agendas/{id}/reject", func() {
		It("should use the default reason when the body is empty", func() {
			created := createPending(guru)
			req := requestAs(admin, http.MethodPut, "/agendas/1/reject", "", map[string]string{
				"id": strconv.FormatInt(created.ID, 10),
			})
			w := httptest.NewRecorder()

			handler.RejectAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			data := env.Data.(map[string]interface{})
			Expect(data["status"]).To(Equal("rejected"))
			Expect(data["rejection_reason"]).To(Equal(agenda.DefaultRejectionReason))
		})
	})

	Describe("GET /agendas/{id}", func() {
		It("should hide someone else's pending agenda from a guru", func() {
			created := createPending(admin)
			req := requestAs(guru, http.MethodGet, "/agendas/1", "", map[string]string{
				"id": strconv.FormatInt(created.ID, 10),
			})
			w := httptest.NewRecorder()

			handler.GetAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should show an approved agenda to everyone", func() {
			created := createPending(admin)
			_, err := service.Approve(context.Background(), created.ID, admin, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())

			req := requestAs(guru, http.MethodGet, "/agendas/1", "", map[string]string{
				"id": strconv.FormatInt(created.ID, 10),
			})
			w := httptest.NewRecorder()

			handler.GetAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /agendas/user/{id}", func() {
		It("should refuse a guru asking for another user's listing", func() {
			req := requestAs(guru, http.MethodGet, "/agendas/user/3", "", map[string]string{"id": "3"})
			w := httptest.NewRecorder()

			handler.UserAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
		})

		It("should serve the guru's own visibility set", func() {
			createPending(guru)
			req := requestAs(guru, http.MethodGet, "/agendas/user/2", "", map[string]string{"id": "2"})
			w := httptest.NewRecorder()

			handler.UserAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			items, ok := env.Data.([]interface{})
			Expect(ok).To(BeTrue())
			Expect(items).To(HaveLen(1))
		})
	})

	Describe("DELETE /agendas/{id}", func() {
		It("should answer 204 and remove the agenda", func() {
			created := createPending(guru)
			req := requestAs(admin, http.MethodDelete, "/agendas/1", "", map[string]string{
				"id": strconv.FormatInt(created.ID, 10),
			})
			w := httptest.NewRecorder()

			handler.DeleteAgenda(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))

			_, err := service.GetByID(created.ID)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GET /agendas/search", func() {
		It("should answer 400 for a malformed date filter", func() {
			req := requestAs(admin, http.MethodGet, "/agendas/search?date_from=10-01-2025", "", nil)
			w := httptest.NewRecorder()

			handler.SearchAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should hide other users' pending agendas from a siswa asking for them", func() {
			createPending(guru)
			siswa := &internal.SessionUser{ID: 3, Email: "siti@smkn1kotabekasi.sch.id", Role: "siswa"}

			req := requestAs(siswa, http.MethodGet, "/agendas/search?status=pending", "", nil)
			w := httptest.NewRecorder()

			handler.SearchAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Data).To(BeEmpty())
		})

		It("should let a siswa find approved agendas only", func() {
			created := createPending(guru)
			_, err := service.Approve(context.Background(), created.ID, admin, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())
			createPending(guru)

			siswa := &internal.SessionUser{ID: 3, Email: "siti@smkn1kotabekasi.sch.id", Role: "siswa"}
			req := requestAs(siswa, http.MethodGet, "/agendas/search?q=Rapat", "", nil)
			w := httptest.NewRecorder()

			handler.SearchAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			items, ok := env.Data.([]interface{})
			Expect(ok).To(BeTrue())
			Expect(items).To(HaveLen(1))
			Expect(items[0].(map[string]interface{})["status"]).To(Equal("approved"))
		})

		It("should let a guru search own pending but not someone else's", func() {
			createPending(guru)
			otherGuru := &internal.SessionUser{ID: 4, Email: "ani@smkn1kotabekasi.guru.sch.id", Role: "guru"}
			createPending(otherGuru)

			req := requestAs(guru, http.MethodGet, "/agendas/search?status=pending", "", nil)
			w := httptest.NewRecorder()

			handler.SearchAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			items, ok := env.Data.([]interface{})
			Expect(ok).To(BeTrue())
			Expect(items).To(HaveLen(1))
			Expect(items[0].(map[string]interface{})["created_by"]).To(BeNumerically("==", guru.ID))
		})

		It("should filter by free text", func() {
			createPending(guru)
			_, err := service.Create(context.Background(), agenda.AgendaDTO{
				Judul:   "Upacara Bendera",
				Tanggal: "2025-01-13",
				Waktu:   "07:00",
				Tempat:  "Lapangan",
			}, guru, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())

			req := requestAs(admin, http.MethodGet, "/agendas/search?q=Upacara", "", nil)
			w := httptest.NewRecorder()

			handler.SearchAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			items, ok := env.Data.([]interface{})
			Expect(ok).To(BeTrue())
			Expect(items).To(HaveLen(1))
		})
	})

	Describe("GET /agendas/range", func() {
		It("should serve agendas between two dates inclusive", func() {
			createPending(guru)
			_, err := service.Create(context.Background(), agenda.AgendaDTO{
				Judul:   "Ujian Akhir",
				Tanggal: "2025-02-20",
				Waktu:   "08:00",
				Tempat:  "Ruang 12",
			}, guru, "10.0.0.1", "test")
			Expect(err).NotTo(HaveOccurred())

			req := requestAs(admin, http.MethodGet, "/agendas/range?from=2025-01-01&to=2025-01-31", "", nil)
			w := httptest.NewRecorder()

			handler.AgendasByDateRange(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.Envelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			items, ok := env.Data.([]interface{})
			Expect(ok).To(BeTrue())
			Expect(items).To(HaveLen(1))
			Expect(items[0].(map[string]interface{})["judul"]).To(Equal("Rapat"))
		})

		It("should answer 400 when the bounds are missing or inverted", func() {
			req := requestAs(admin, http.MethodGet, "/agendas/range?from=2025-01-31", "", nil)
			w := httptest.NewRecorder()
			handler.AgendasByDateRange(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))

			req = requestAs(admin, http.MethodGet, "/agendas/range?from=2025-01-31&to=2025-01-01", "", nil)
			w = httptest.NewRecorder()
			handler.AgendasByDateRange(w, req)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /agendas pagination", func() {
		It("should report pagination metadata", func() {
			for i := 0; i < 3; i++ {
				createPending(guru)
			}

			req := requestAs(admin, http.MethodGet, "/agendas?page=1&per_page=2", "", nil)
			w := httptest.NewRecorder()

			handler.ListAgendas(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var env transport.PaginatedEnvelope
			Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
			Expect(env.Pagination.Total).To(Equal(int64(3)))
			Expect(env.Pagination.TotalPages).To(Equal(2))
			Expect(env.Pagination.HasNext).To(BeTrue())
			Expect(env.Pagination.HasPrev).To(BeFalse())
		})
	})
})
