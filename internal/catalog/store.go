package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/shopquery"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned for lookups of ids that do not exist.
var ErrNotFound = errors.New("bike not found")

const defaultPageSize = 20

// Store is the Postgres-backed catalog provider: paginated section
// listings, facet queries and single-entity lookups.
type Store struct {
	db       *sqlx.DB
	pageSize int
}

// NewStore creates a new catalog store
func NewStore(databaseURL string, pageSize int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Store{db: db, pageSize: pageSize}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// readyBikeRow mirrors the ready_bikes table; list columns are stored as
// delimited text.
type readyBikeRow struct {
	ID          int64    `db:"id"`
	Title       string   `db:"title"`
	Brand       string   `db:"brand"`
	OldPrice    float64  `db:"old_price"`
	NewPrice    *float64 `db:"new_price"`
	Category    string   `db:"category"`
	Subcategory *string  `db:"subcategory"`
	Images      *string  `db:"images"`
	URL         string   `db:"url"`
}

type stockBikeRow struct {
	ID          int64    `db:"id"`
	Title       string   `db:"title"`
	Brand       string   `db:"brand"`
	OldPrice    float64  `db:"old_price"`
	NewPrice    *float64 `db:"new_price"`
	Category    string   `db:"category"`
	Subcategory *string  `db:"subcategory"`
	Images      *string  `db:"images"`
	Description string   `db:"description"`
	Stock       bool     `db:"stock"`
	Popular     bool     `db:"popular"`
	URL         string   `db:"url"`
	YouTubeLink *string  `db:"youtube_link"`
}

// splitList splits a delimited column on commas and semicolons, trimming
// blanks.
func splitList(value *string) []string {
	if value == nil || *value == "" {
		return []string{}
	}
	parts := strings.FieldsFunc(*value, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitCSV(value *string) []string {
	if value == nil || *value == "" {
		return []string{}
	}
	parts := strings.Split(*value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mapReadyBike(row readyBikeRow) models.ReadyBike {
	return models.ReadyBike{
		ID:            row.ID,
		Title:         row.Title,
		Brand:         row.Brand,
		OldPrice:      row.OldPrice,
		NewPrice:      row.NewPrice,
		Category:      row.Category,
		Subcategories: splitList(row.Subcategory),
		Images:        splitCSV(row.Images),
		URL:           row.URL,
	}
}

func mapStockBike(row stockBikeRow) models.StockBike {
	return models.StockBike{
		ID:            row.ID,
		Title:         row.Title,
		Brand:         row.Brand,
		OldPrice:      row.OldPrice,
		NewPrice:      row.NewPrice,
		Category:      row.Category,
		Subcategories: splitList(row.Subcategory),
		Images:        splitCSV(row.Images),
		Description:   row.Description,
		Stock:         row.Stock,
		Popular:       row.Popular,
		URL:           row.URL,
		YouTubeLink:   row.YouTubeLink,
	}
}

// listQuery builds the WHERE clause and args shared by the row and count
// queries of one listing.
func listQuery(base string, filters shopquery.SectionFilters, args []interface{}) (string, []interface{}) {
	clauses := []string{}

	if filters.Category != "" {
		args = append(args, filters.Category)
		clauses = append(clauses, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}
	if filters.Subcategory != "" {
		args = append(args, "%"+filters.Subcategory+"%")
		clauses = append(clauses, fmt.Sprintf("subcategory ILIKE $%d", len(args)))
	}

	if len(clauses) > 0 {
		if strings.Contains(base, "WHERE") {
			base += " AND " + strings.Join(clauses, " AND ")
		} else {
			base += " WHERE " + strings.Join(clauses, " AND ")
		}
	}
	return base, args
}

// orderClause maps validated sort filters to SQL. The sort key and order
// come from a closed enum, never from raw user input.
func orderClause(filters shopquery.SectionFilters, priceExpr string) string {
	direction := "ASC"
	if filters.SortOrder == shopquery.SortDesc {
		direction = "DESC"
	}
	if filters.SortBy == shopquery.SortByPrice {
		return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, title ASC", priceExpr, direction)
	}
	return fmt.Sprintf(" ORDER BY title %s", direction)
}

func (s *Store) paginate(page int) (limit, offset, safePage int) {
	if page < 1 {
		page = 1
	}
	return s.pageSize, (page - 1) * s.pageSize, page
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ListReadyBikes returns one page of the order-to-ship section.
func (s *Store) ListReadyBikes(ctx context.Context, filters shopquery.SectionFilters) (models.Paginated[models.ReadyBike], error) {
	var out models.Paginated[models.ReadyBike]

	where, args := listQuery("SELECT COUNT(*) FROM ready_bikes", filters, nil)
	var total int
	if err := s.db.GetContext(ctx, &total, where, args...); err != nil {
		return out, fmt.Errorf("failed to count ready bikes: %w", err)
	}

	limit, offset, page := s.paginate(filters.Page)

	query, args := listQuery("SELECT * FROM ready_bikes", filters, nil)
	query += orderClause(filters, "old_price")
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []readyBikeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return out, fmt.Errorf("failed to list ready bikes: %w", err)
	}

	bikes := make([]models.ReadyBike, 0, len(rows))
	for _, row := range rows {
		bikes = append(bikes, mapReadyBike(row))
	}

	out = models.Paginated[models.ReadyBike]{
		Bikes:      bikes,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, s.pageSize),
	}
	return out, nil
}

// ListStockBikes returns one page of the in-stock section, variants
// attached. Only rows currently in stock are listed.
func (s *Store) ListStockBikes(ctx context.Context, filters shopquery.SectionFilters) (models.Paginated[models.StockBikeWithVariants], error) {
	var out models.Paginated[models.StockBikeWithVariants]

	where, args := listQuery("SELECT COUNT(*) FROM stock_bikes WHERE stock = true", filters, nil)
	var total int
	if err := s.db.GetContext(ctx, &total, where, args...); err != nil {
		return out, fmt.Errorf("failed to count stock bikes: %w", err)
	}

	limit, offset, page := s.paginate(filters.Page)

	query, args := listQuery("SELECT * FROM stock_bikes WHERE stock = true", filters, nil)
	// Sale price wins over list price when ordering by price.
	query += orderClause(filters, "COALESCE(new_price, old_price)")
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []stockBikeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return out, fmt.Errorf("failed to list stock bikes: %w", err)
	}

	bikes := make([]models.StockBike, 0, len(rows))
	for _, row := range rows {
		bikes = append(bikes, mapStockBike(row))
	}

	withVariants, err := s.attachVariants(ctx, bikes)
	if err != nil {
		return out, err
	}

	out = models.Paginated[models.StockBikeWithVariants]{
		Bikes:      withVariants,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, s.pageSize),
	}
	return out, nil
}

// attachVariants fetches all variants for a page of bikes in one query.
func (s *Store) attachVariants(ctx context.Context, bikes []models.StockBike) ([]models.StockBikeWithVariants, error) {
	out := make([]models.StockBikeWithVariants, 0, len(bikes))
	if len(bikes) == 0 {
		return out, nil
	}

	ids := make([]int64, len(bikes))
	for i, bike := range bikes {
		ids[i] = bike.ID
	}

	query, args, err := sqlx.In("SELECT * FROM bike_variants WHERE bike_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var variants []models.BikeVariant
	if err := s.db.SelectContext(ctx, &variants, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch bike variants: %w", err)
	}

	byBike := make(map[int64][]models.BikeVariant)
	for _, v := range variants {
		byBike[v.BikeID] = append(byBike[v.BikeID], v)
	}

	for _, bike := range bikes {
		vs := byBike[bike.ID]
		if vs == nil {
			vs = []models.BikeVariant{}
		}
		out = append(out, models.StockBikeWithVariants{StockBike: bike, Variants: vs})
	}
	return out, nil
}

// GetReadyBike retrieves an order-to-ship bike by id.
func (s *Store) GetReadyBike(ctx context.Context, id int64) (*models.ReadyBike, error) {
	var row readyBikeRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM ready_bikes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ready bike %d: %w", id, err)
	}
	bike := mapReadyBike(row)
	return &bike, nil
}

// GetStockBike retrieves an in-stock bike by id, variants attached.
func (s *Store) GetStockBike(ctx context.Context, id int64) (*models.StockBikeWithVariants, error) {
	var row stockBikeRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM stock_bikes WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock bike %d: %w", id, err)
	}

	withVariants, err := s.attachVariants(ctx, []models.StockBike{mapStockBike(row)})
	if err != nil {
		return nil, err
	}
	return &withVariants[0], nil
}

// PopularStockBikes returns the bikes flagged popular, title order.
func (s *Store) PopularStockBikes(ctx context.Context) ([]models.StockBikeWithVariants, error) {
	var rows []stockBikeRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM stock_bikes WHERE stock = true AND popular = true ORDER BY title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch popular bikes: %w", err)
	}

	bikes := make([]models.StockBike, 0, len(rows))
	for _, row := range rows {
		bikes = append(bikes, mapStockBike(row))
	}
	return s.attachVariants(ctx, bikes)
}

// ReadyCategories returns the distinct ready-to-order categories.
func (s *Store) ReadyCategories(ctx context.Context) ([]string, error) {
	return s.distinctCategories(ctx, "ready_bikes")
}

// StockCategories returns the distinct in-stock categories.
func (s *Store) StockCategories(ctx context.Context) ([]string, error) {
	return s.distinctCategories(ctx, "stock_bikes")
}

func (s *Store) distinctCategories(ctx context.Context, table string) ([]string, error) {
	var values []string
	query := fmt.Sprintf("SELECT DISTINCT category FROM %s WHERE category IS NOT NULL", table)
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return dedupeSorted(values), nil
}

// ReadySubcategories returns the distinct subcategories of the
// ready-to-order section, optionally scoped to one category.
func (s *Store) ReadySubcategories(ctx context.Context, category string) ([]string, error) {
	return s.subcategories(ctx, "ready_bikes", category)
}

// StockSubcategories returns the distinct subcategories of the in-stock
// section, optionally scoped to one category.
func (s *Store) StockSubcategories(ctx context.Context, category string) ([]string, error) {
	return s.subcategories(ctx, "stock_bikes", category)
}

func (s *Store) subcategories(ctx context.Context, table, category string) ([]string, error) {
	query := fmt.Sprintf("SELECT subcategory FROM %s WHERE subcategory IS NOT NULL", table)
	args := []interface{}{}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}

	var raw []string
	if err := s.db.SelectContext(ctx, &raw, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch subcategories: %w", err)
	}

	// Subcategory columns hold delimited lists; flatten before deduping.
	flat := []string{}
	for i := range raw {
		flat = append(flat, splitList(&raw[i])...)
	}
	return dedupeSorted(flat), nil
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
