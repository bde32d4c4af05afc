package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

const productColumns = `
	p.id, p.name, p.price, COALESCE(c.name, ''), COALESCE(p.category_id, 0), p.state, p.created_at
`

func (r *catalogRepository) ListProducts(state domain.ProductState) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.state = $1
		ORDER BY p.id
	`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

func (r *catalogRepository) GetProduct(id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getProduct(ctx, r.db, id)
}

func (r *catalogRepository) CreateProduct(product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	categoryName := domain.NormalizeCategoryName(product.Category)

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, price, category_id, state)
		SELECT $1, $2, c.id, $3
		FROM categories c
		WHERE c.name = $4
		RETURNING id, category_id, created_at
	`,
		product.Name, product.Price, string(domain.ProductStateActive), categoryName,
	).Scan(&product.ID, &product.CategoryID, &product.CreatedAt)
	if err != nil {
		// INSERT ... SELECT без строки категории не возвращает строк.
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrCategoryUnknown
		}
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	product.Category = categoryName
	product.State = domain.ProductStateActive
	return product, nil
}

func (r *catalogRepository) UpdateProduct(product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	categoryName := domain.NormalizeCategoryName(product.Category)

	var categoryID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1`, categoryName).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrCategoryUnknown
		} else {
			err = fmt.Errorf("resolve category: %w", err)
		}
		return domain.Product{}, err
	}

	// Compare-and-update: изменяем только активный товар, гонки разрешаются
	// числом затронутых строк, а не предварительным чтением.
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    price = $2,
		    category_id = $3
		WHERE id = $4
		  AND state = $5
	`,
		product.Name, product.Price, categoryID, product.ID, string(domain.ProductStateActive),
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = r.disambiguateZeroEffect(ctx, tx, product.ID, domain.ErrProductDeleted)
		return domain.Product{}, err
	}

	updated, err := r.getProduct(ctx, tx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, fmt.Errorf("commit update product: %w", err)
	}

	return updated, nil
}

func (r *catalogRepository) SoftDeleteProduct(id int64) error {
	return r.transitionProduct(id, domain.ProductStateActive, domain.ProductStateDeleted, domain.ErrProductDeleted)
}

func (r *catalogRepository) RestoreProduct(id int64) (domain.Product, error) {
	if err := r.transitionProduct(id, domain.ProductStateDeleted, domain.ProductStateActive, domain.ErrProductNotDeleted); err != nil {
		return domain.Product{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return r.getProduct(ctx, r.db, id)
}

// transitionProduct выполняет переход состояния по схеме compare-and-update.
// Нулевое число затронутых строк разрешается в NotFound либо conflictErr.
func (r *catalogRepository) transitionProduct(id int64, from, to domain.ProductState, conflictErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET state = $1
		WHERE id = $2
		  AND state = $3
	`, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("transition product state: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = r.disambiguateZeroEffect(ctx, tx, id, conflictErr)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit product transition: %w", err)
	}

	return nil
}

// disambiguateZeroEffect различает "товара нет" и "товар в несовместимом
// состоянии" после условного UPDATE, не выходя из транзакции.
func (r *catalogRepository) disambiguateZeroEffect(ctx context.Context, q queryer, id int64, conflictErr error) error {
	var existing int64
	err := q.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("check product exists: %w", err)
	}
	return conflictErr
}

func (r *catalogRepository) ListCategories() ([]domain.Category, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}

func (r *catalogRepository) CreateCategory(name string) (domain.Category, error) {
	if err := domain.ValidateCategoryName(name); err != nil {
		return domain.Category{}, err
	}
	name = domain.NormalizeCategoryName(name)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	category := domain.Category{Name: name}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id, created_at
	`, name).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Category{}, domain.ErrCategoryExists
		}
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}

	return category, nil
}

func (r *catalogRepository) DeleteCategory(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Referential guard: считаем только активные товары. Удалённые товары
	// не блокируют удаление — их ссылка обнулится через ON DELETE SET NULL.
	var activeCount int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM products
		WHERE category_id = $1
		  AND state = $2
	`, id, string(domain.ProductStateActive)).Scan(&activeCount)
	if err != nil {
		return fmt.Errorf("count category products: %w", err)
	}
	if activeCount > 0 {
		err = domain.ErrCategoryInUse
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrCategoryNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}

	return nil
}

// queryer покрывает общие методы *sql.DB и *sql.Tx для вспомогательных чтений.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *catalogRepository) getProduct(ctx context.Context, q queryer, id int64) (domain.Product, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return product, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product domain.Product
		state   string
	)
	if err := row.Scan(
		&product.ID, &product.Name, &product.Price,
		&product.Category, &product.CategoryID, &state, &product.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scan product row: %w", err)
	}
	product.State = domain.ProductState(state)
	return product, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
