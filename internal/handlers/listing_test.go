package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-service/internal/mocks"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/services"
)

type listingFixture struct {
	listings *mocks.ListingRepositoryMock
	offers   *mocks.OfferRepositoryMock
	rooms    *mocks.RoomRepositoryMock
	members  *mocks.MemberRepositoryMock
	router   *gin.Engine
}

func setupListingRouter(userID int64) listingFixture {
	gin.SetMode(gin.TestMode)
	f := listingFixture{
		listings: new(mocks.ListingRepositoryMock),
		offers:   new(mocks.OfferRepositoryMock),
		rooms:    new(mocks.RoomRepositoryMock),
		members:  new(mocks.MemberRepositoryMock),
	}

	listingService := services.NewListingService(f.listings)
	chatService := services.NewChatService(f.rooms, f.listings, listingService)
	offerService := services.NewOfferService(f.offers, f.listings, f.members, chatService, nil)
	handler := NewListingHandler(listingService, offerService, chatService)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.POST("/listings", handler.Create)
	r.GET("/listings", handler.List)
	r.GET("/listings/:listing_id", handler.Get)
	r.POST("/listings/:listing_id/bump", handler.Bump)
	r.PATCH("/listings/:listing_id/status", handler.UpdateStatus)
	r.DELETE("/listings/:listing_id", handler.Delete)
	r.POST("/listings/:listing_id/price-offers", handler.CreateOffer)
	r.GET("/listings/:listing_id/price-offers", handler.ListOffers)
	f.router = r
	return f
}

func TestCreateListingEndpoint(t *testing.T) {
	f := setupListingRouter(7)
	f.listings.On("Create", mock.Anything, mock.Anything).
		Return(models.Listing{ID: 3, OwnerID: 7, ItemName: "royal crown"}, nil).Once()

	body := bytes.NewBufferString(`{"item_name":"royal crown","description":"barely worn","price":1200000,"negotiable":true}`)
	req := httptest.NewRequest(http.MethodPost, "/listings", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.Listing
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, int64(3), resp.ID)
	f.listings.AssertExpectations(t)
}

func TestCreateListingMissingFields(t *testing.T) {
	f := setupListingRouter(7)

	body := bytes.NewBufferString(`{"price":100}`)
	req := httptest.NewRequest(http.MethodPost, "/listings", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetListingNotFound(t *testing.T) {
	f := setupListingRouter(7)
	f.listings.On("Get", mock.Anything, int64(99)).
		Return(models.Listing{}, repositories.ErrListingNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/listings/99", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBumpListingCooldown(t *testing.T) {
	f := setupListingRouter(7)
	f.listings.On("Get", mock.Anything, int64(3)).
		Return(models.Listing{ID: 3, OwnerID: 7, CreatedAt: time.Now()}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/listings/3/bump", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBumpListingForbidden(t *testing.T) {
	f := setupListingRouter(8)
	f.listings.On("Get", mock.Anything, int64(3)).
		Return(models.Listing{ID: 3, OwnerID: 7}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/listings/3/bump", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateOfferEndpoint(t *testing.T) {
	f := setupListingRouter(8)
	f.listings.On("Get", mock.Anything, int64(3)).
		Return(models.Listing{ID: 3, OwnerID: 7, Negotiable: true, Status: models.ListingAvailable, Currency: models.CurrencyBell}, nil).Once()
	f.offers.On("HasPending", mock.Anything, int64(3), int64(8)).Return(false, nil).Once()
	f.offers.On("Create", mock.Anything, mock.Anything).
		Return(models.PriceOffer{ID: 11, Status: models.OfferPending}, nil).Once()

	body := bytes.NewBufferString(`{"price":900000}`)
	req := httptest.NewRequest(http.MethodPost, "/listings/3/price-offers", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.offers.AssertExpectations(t)
}

func TestCreateOfferDuplicate(t *testing.T) {
	f := setupListingRouter(8)
	f.listings.On("Get", mock.Anything, int64(3)).
		Return(models.Listing{ID: 3, OwnerID: 7, Negotiable: true, Status: models.ListingAvailable, Currency: models.CurrencyBell}, nil).Once()
	f.offers.On("HasPending", mock.Anything, int64(3), int64(8)).Return(true, nil).Once()

	body := bytes.NewBufferString(`{"price":900000}`)
	req := httptest.NewRequest(http.MethodPost, "/listings/3/price-offers", body)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOffersForbidden(t *testing.T) {
	f := setupListingRouter(8)
	f.listings.On("Get", mock.Anything, int64(3)).
		Return(models.Listing{ID: 3, OwnerID: 7}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/listings/3/price-offers", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBadListingIDPath(t *testing.T) {
	f := setupListingRouter(7)

	req := httptest.NewRequest(http.MethodGet, "/listings/not-a-number", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
