package misc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/2beens/fitcoach/internal/geoip"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/internal/units"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type countryLookup interface {
	Country(ctx context.Context, ip string) (string, error)
}

type Handler struct {
	geoIp         countryLookup
	quotesManager *QuotesManager
	versionInfo   string
}

func NewHandler(
	geoIp countryLookup,
	quotesManager *QuotesManager,
	versionInfo string,
) *Handler {
	return &Handler{
		geoIp:         geoIp,
		quotesManager: quotesManager,
		versionInfo:   versionInfo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/quote/random", handler.handleGetRandomQuote).Methods("GET").Name("quote")
	mainRouter.HandleFunc("/whereami", handler.handleWhereAmI).Methods("GET").Name("whereami")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetRandomQuote(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.quote")
	defer span.End()

	author := r.URL.Query().Get("author")
	genre := r.URL.Query().Get("genre")
	span.SetAttributes(attribute.String("author", author), attribute.String("genre", genre))

	q := handler.quotesManager.RandomQuoteBy(author, genre)
	if q == nil {
		http.Error(w, "no quotes", http.StatusNotFound)
		return
	}

	pkg.WriteJSON(w, q, http.StatusOK)
}

type whereAmIResponse struct {
	Country    string       `json:"country"`
	UnitSystem units.System `json:"unit_system"`
}

// handleWhereAmI lets the register form preselect the unit system.
func (handler *Handler) handleWhereAmI(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.whereAmI")
	defer span.End()

	userIP, err := pkg.ReadUserIP(r)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("get user ip: %s", err))
		http.Error(w, "geo ip info error", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("user.ip", userIP))

	country, err := handler.geoIp.Country(ctx, userIP)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("get request geo info: %s", err))
		log.Errorf("error getting geo ip info: %s", err)
		http.Error(w, "geo ip info error", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("user.country", country))

	pkg.WriteJSON(w, whereAmIResponse{
		Country:    country,
		UnitSystem: geoip.UnitSystemForCountry(country),
	}, http.StatusOK)
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
