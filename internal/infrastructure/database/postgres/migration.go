// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/your-org/eyewear-backend/internal/domain/cart"
	"github.com/your-org/eyewear-backend/internal/domain/lens"
	"github.com/your-org/eyewear-backend/internal/domain/product"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// demoStoreID owns every seeded catalog row
const demoStoreID uint = 1

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order
	models := []interface{}{
		// Product domain
		&product.Category{},
		&product.Product{},
		&product.ProductVariant{},
		&product.FrameSize{},

		// Lens catalog
		&lens.LensType{},
		&lens.ProgressiveVariant{},
		&lens.LensTreatment{},
		&lens.LensCoating{},
		&lens.LensThicknessMaterial{},
		&lens.LensThicknessOption{},
		&lens.CategoryLensOption{},
		&lens.PrescriptionOption{},

		// Cart domain
		&cart.CartItem{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for the resolver and cart queries
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_store_category ON products(store_id, category_id)",
		"CREATE INDEX IF NOT EXISTS idx_products_store_active ON products(store_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_product_frame_sizes_product_sort ON product_frame_sizes(product_id, sort_order)",

		// Lens catalog indexes
		"CREATE INDEX IF NOT EXISTS idx_lens_types_store_active ON lens_types(store_id, is_active, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_lens_treatments_store_active ON lens_treatments(store_id, is_active, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_lens_coatings_store_active ON lens_coatings(store_id, is_active, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_lens_thickness_materials_store_active ON lens_thickness_materials(store_id, is_active, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_lens_thickness_options_store_active ON lens_thickness_options(store_id, is_active, sort_order)",
		"CREATE INDEX IF NOT EXISTS idx_lens_progressive_variants_type_active ON lens_progressive_variants(lens_type_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_category_lens_options_scope ON category_lens_options(store_id, category_id)",
		"CREATE INDEX IF NOT EXISTS idx_prescription_options_scope ON prescription_options(store_id, category_id, product_id)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_user_product ON cart_items(user_id, product_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_created_at ON cart_items(created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts a demo store catalog
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount > 0 {
		log.Println("⏭️ Demo catalog already exists")
		return nil
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		categories, err := seedCategories(tx)
		if err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		if err := seedProducts(tx, categories); err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		lensTypes, err := seedLensCatalog(tx)
		if err != nil {
			return fmt.Errorf("failed to seed lens catalog: %w", err)
		}
		if err := seedCategoryOverrides(tx, categories, lensTypes); err != nil {
			return fmt.Errorf("failed to seed category lens options: %w", err)
		}
		if err := seedPrescriptionOptions(tx, categories); err != nil {
			return fmt.Errorf("failed to seed prescription options: %w", err)
		}

		log.Println("✅ Initial data seeded successfully")
		return nil
	})
}

func seedCategories(tx *gorm.DB) (map[string]*product.Category, error) {
	log.Println("🏷️ Seeding categories...")

	categories := []*product.Category{
		{Name: "Eyeglasses", Slug: "eyeglasses", Description: "Prescription frames", PrescriptionKind: product.PrescriptionAstigmatism, IsActive: true},
		{Name: "Reading Glasses", Slug: "reading-glasses", Description: "Readers with spherical lenses", PrescriptionKind: product.PrescriptionSpherical, IsActive: true},
		{Name: "Sunglasses", Slug: "sunglasses", Description: "Frames with tinted lenses", PrescriptionKind: product.PrescriptionAstigmatism, IsActive: true},
		{Name: "Contact Lenses", Slug: "contact-lenses", Description: "Toric and spherical contact lenses", PrescriptionKind: product.PrescriptionAstigmatism, IsActive: true},
	}

	bySlug := make(map[string]*product.Category, len(categories))
	for _, category := range categories {
		if err := tx.Create(category).Error; err != nil {
			return nil, err
		}
		bySlug[category.Slug] = category
		log.Printf("✅ Created category: %s", category.Name)
	}
	return bySlug, nil
}

func seedProducts(tx *gorm.DB, categories map[string]*product.Category) error {
	log.Println("🕶️ Seeding demo frames...")

	products := []product.Product{
		{
			StoreID:     demoStoreID,
			CategoryID:  categories["eyeglasses"].ID,
			SKU:         "FRM-AVI-001",
			Name:        "Aviator Classic",
			Slug:        "aviator-classic",
			Description: "Metal aviator frame with adjustable nose pads",
			Price:       decimal.RequireFromString("100.00"),
			IsActive:    true,
			Variants: []product.ProductVariant{
				{SKU: "FRM-AVI-001-GLD", Name: "Gold", IsActive: true},
				{SKU: "FRM-AVI-001-BLK", Name: "Matte Black", Price: decimal.RequireFromString("110.00"), IsActive: true},
			},
			FrameSizes: []product.FrameSize{
				{Name: "S", LensWidth: 52, BridgeWidth: 16, TempleLength: 140, SortOrder: 1},
				{Name: "M", LensWidth: 55, BridgeWidth: 17, TempleLength: 145, SortOrder: 2},
				{Name: "L", LensWidth: 58, BridgeWidth: 18, TempleLength: 145, Price: decimal.RequireFromString("5.00"), SortOrder: 3},
			},
		},
		{
			StoreID:     demoStoreID,
			CategoryID:  categories["reading-glasses"].ID,
			SKU:         "FRM-RND-002",
			Name:        "Round Reader",
			Slug:        "round-reader",
			Description: "Lightweight round reading frame",
			Price:       decimal.RequireFromString("80.00"),
			IsActive:    true,
		},
		{
			StoreID:     demoStoreID,
			CategoryID:  categories["sunglasses"].ID,
			SKU:         "SUN-WAY-003",
			Name:        "Wayfarer Sun",
			Slug:        "wayfarer-sun",
			Description: "Acetate wayfarer for prescription sun lenses",
			Price:       decimal.RequireFromString("120.00"),
			IsActive:    true,
		},
		{
			StoreID:     demoStoreID,
			CategoryID:  categories["contact-lenses"].ID,
			SKU:         "CL-TOR-004",
			Name:        "Monthly Toric",
			Slug:        "monthly-toric",
			Description: "Monthly toric contact lenses, box of 6",
			Price:       decimal.RequireFromString("34.90"),
			IsActive:    true,
		},
	}

	for i := range products {
		if err := tx.Create(&products[i]).Error; err != nil {
			return err
		}
		log.Printf("✅ Created product: %s", products[i].Name)
	}
	return nil
}

func seedLensCatalog(tx *gorm.DB) (map[string]*lens.LensType, error) {
	log.Println("👓 Seeding lens catalog...")

	lensTypes := []*lens.LensType{
		{StoreID: demoStoreID, Name: "Distance Vision", Slug: "distance-vision", Description: "Single vision for far", Index: decimal.RequireFromString("1.5"), IsActive: true, SortOrder: 1},
		{StoreID: demoStoreID, Name: "Near Vision", Slug: "near-vision", Description: "Single vision for reading", Index: decimal.RequireFromString("1.5"), PriceAdjustment: decimal.RequireFromString("15.00"), IsActive: true, SortOrder: 2},
		{
			StoreID: demoStoreID, Name: "Progressive", Slug: "progressive", Description: "Near, intermediate and far in one lens",
			Index: decimal.RequireFromString("1.6"), PriceAdjustment: decimal.RequireFromString("40.00"), IsActive: true, SortOrder: 3,
			Variants: []lens.ProgressiveVariant{
				{Name: "Essential", Description: "Standard corridor", IsActive: true, SortOrder: 1},
				{Name: "Premium", Description: "Wide corridor", Price: decimal.RequireFromString("60.00"), IsActive: true, SortOrder: 2},
			},
		},
		{StoreID: demoStoreID, Name: "Non-Prescription", Slug: "non-prescription", Description: "Plano lenses", Index: decimal.RequireFromString("1.5"), IsActive: true, SortOrder: 4},
	}
	bySlug := make(map[string]*lens.LensType, len(lensTypes))
	for _, t := range lensTypes {
		if err := tx.Create(t).Error; err != nil {
			return nil, err
		}
		bySlug[t.Slug] = t
	}

	treatments := []lens.LensTreatment{
		{StoreID: demoStoreID, Name: "Blue Light Filter", Price: decimal.RequireFromString("19.00"), IsActive: true, SortOrder: 1},
		{StoreID: demoStoreID, Name: "Photochromic Grey", Price: decimal.RequireFromString("49.00"), IsActive: true, SortOrder: 2},
		{StoreID: demoStoreID, Name: "Sun Tint Brown", Price: decimal.RequireFromString("29.00"), IsActive: true, SortOrder: 3},
		{StoreID: demoStoreID, Name: "Polarized Sun Grey", Price: decimal.RequireFromString("59.00"), IsActive: true, SortOrder: 4},
	}
	coatings := []lens.LensCoating{
		{StoreID: demoStoreID, Name: "Anti-Reflective", Price: decimal.RequireFromString("15.00"), IsActive: true, SortOrder: 1},
		{StoreID: demoStoreID, Name: "Scratch Resistant", IsActive: true, SortOrder: 2},
	}
	materials := []lens.LensThicknessMaterial{
		{StoreID: demoStoreID, Name: "Standard", Description: "Regular plastic", IsActive: true, SortOrder: 1},
		{StoreID: demoStoreID, Name: "Thin", Description: "Thinner and lighter", Price: decimal.RequireFromString("25.00"), IsActive: true, SortOrder: 2},
		{StoreID: demoStoreID, Name: "Ultra Thin", Description: "For strong prescriptions", Price: decimal.RequireFromString("55.00"), IsActive: true, SortOrder: 3},
	}
	indexOptions := []lens.LensThicknessOption{
		{StoreID: demoStoreID, Name: "Standard", Value: "1.50", IsActive: true, SortOrder: 1},
		{StoreID: demoStoreID, Name: "Thin", Value: "1.60", IsActive: true, SortOrder: 2},
		{StoreID: demoStoreID, Name: "Ultra Thin", Value: "1.67", IsActive: true, SortOrder: 3},
	}

	for _, rows := range []interface{}{&treatments, &coatings, &materials, &indexOptions} {
		if err := tx.Create(rows).Error; err != nil {
			return nil, err
		}
	}

	log.Printf("✅ Created %d lens types, %d treatments, %d materials", len(lensTypes), len(treatments), len(materials))
	return bySlug, nil
}

// seedCategoryOverrides restricts reading glasses to near vision and plano lenses
func seedCategoryOverrides(tx *gorm.DB, categories map[string]*product.Category, lensTypes map[string]*lens.LensType) error {
	readers := categories["reading-glasses"].ID
	links := []lens.CategoryLensOption{
		{StoreID: demoStoreID, CategoryID: readers, OptionKind: lens.KindLensType, OptionID: lensTypes["near-vision"].ID},
		{StoreID: demoStoreID, CategoryID: readers, OptionKind: lens.KindLensType, OptionID: lensTypes["non-prescription"].ID},
	}
	return tx.Create(&links).Error
}

func seedPrescriptionOptions(tx *gorm.DB, categories map[string]*product.Category) error {
	contacts := categories["contact-lenses"].ID

	rows := []lens.PrescriptionOption{
		{StoreID: demoStoreID, Field: lens.FieldPD, EyeSide: lens.EyeBoth, Values: jsonValues(lens.DecimalRange("54.0", "74.0", "0.5", 1))},
		{StoreID: demoStoreID, CategoryID: &contacts, Field: lens.FieldBaseCurve, EyeSide: lens.EyeBoth, Values: jsonValues([]string{"8.4", "8.6", "8.8"})},
		{StoreID: demoStoreID, CategoryID: &contacts, Field: lens.FieldDiameter, EyeSide: lens.EyeBoth, Values: jsonValues([]string{"14.2", "14.5"})},
	}
	return tx.Create(&rows).Error
}

func jsonValues(values []string) datatypes.JSON {
	raw, _ := json.Marshal(values)
	return datatypes.JSON(raw)
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Reverse dependency order
	tables := []string{
		"cart_items",
		"prescription_options",
		"category_lens_options",
		"lens_thickness_options",
		"lens_thickness_materials",
		"lens_coatings",
		"lens_treatments",
		"lens_progressive_variants",
		"lens_types",
		"product_frame_sizes",
		"product_variants",
		"products",
		"categories",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}

// GetTableInfo logs the row count of every table
func (m *Migration) GetTableInfo() error {
	var tables []string

	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-28s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}
