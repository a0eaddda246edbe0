package sandbox

import (
	"context"
	"time"

	"github.com/example/luxejewel-storefront/internal/domain/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var sampleProducts = []product.Input{
	{Name: "Rose Gold Drop Earrings", Description: "Elegant rose gold plated drop earrings with pearl accents. Perfect for special occasions.", Price: decimal.NewFromInt(2499), Category: "Earrings", ImageURL: "https://images.unsplash.com/photo-1629297777138-6ae859d4d6df", Stock: 15},
	{Name: "Crystal Stud Earrings", Description: "Dainty crystal stud earrings with minimalist Korean design.", Price: decimal.NewFromInt(1299), Category: "Earrings", ImageURL: "https://images.unsplash.com/photo-1617030557822-c8c35f07c60b", Stock: 20},
	{Name: "Pearl Hoop Earrings", Description: "Classic hoop earrings adorned with freshwater pearls.", Price: decimal.NewFromInt(3499), Category: "Earrings", ImageURL: "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908", Stock: 12},
	{Name: "Delicate Gold Band Ring", Description: "Minimalist gold band ring with subtle Korean aesthetic.", Price: decimal.NewFromInt(1899), Category: "Rings", ImageURL: "https://images.unsplash.com/photo-1588909006332-2e30f95291bc", Stock: 18},
	{Name: "Vintage Rose Ring", Description: "Vintage-inspired rose gold ring with intricate details.", Price: decimal.NewFromInt(2799), Category: "Rings", ImageURL: "https://images.unsplash.com/photo-1592752411501-b62f219cf9e2", Stock: 10},
	{Name: "Moonstone Cocktail Ring", Description: "Statement cocktail ring featuring a luminous moonstone centerpiece.", Price: decimal.NewFromInt(4599), Category: "Rings", ImageURL: "https://images.unsplash.com/photo-1605100804763-247f67b3557e", Stock: 8},
	{Name: "Layered Chain Necklace", Description: "Delicate layered chain necklace in rose gold.", Price: decimal.NewFromInt(3299), Category: "Necklaces", ImageURL: "https://images.pexels.com/photos/6889924/pexels-photo-6889924.jpeg", Stock: 14},
	{Name: "Pendant Heart Necklace", Description: "Romantic heart pendant necklace with Korean charm.", Price: decimal.NewFromInt(2199), Category: "Necklaces", ImageURL: "https://images.unsplash.com/photo-1629297777109-167b5d2bbba4", Stock: 16},
	{Name: "Baroque Pearl Necklace", Description: "Sophisticated baroque pearl necklace for elegant occasions.", Price: decimal.NewFromInt(5299), Category: "Necklaces", ImageURL: "https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f", Stock: 7},
	{Name: "Charm Bracelet Set", Description: "Delicate charm bracelet set with Korean-inspired charms.", Price: decimal.NewFromInt(1799), Category: "Bracelets", ImageURL: "https://images.pexels.com/photos/7642066/pexels-photo-7642066.jpeg", Stock: 22},
	{Name: "Tennis Bracelet", Description: "Classic tennis bracelet with brilliant crystals.", Price: decimal.NewFromInt(3899), Category: "Bracelets", ImageURL: "https://images.unsplash.com/photo-1588559674156-c5984ed49b1c", Stock: 11},
	{Name: "Bangle Set - Gold", Description: "Set of three minimalist gold bangles.", Price: decimal.NewFromInt(2599), Category: "Bracelets", ImageURL: "https://images.unsplash.com/photo-1611591437281-460bfbe1220a", Stock: 13},
	{Name: "Bridal Jewelry Set", Description: "Complete bridal jewelry set including necklace, earrings, and bracelet.", Price: decimal.NewFromInt(12999), Category: "Sets", ImageURL: "https://images.unsplash.com/photo-1515562141207-7a88fb7ce338", Stock: 5},
	{Name: "Everyday Elegance Set", Description: "Perfect everyday jewelry set with earrings and necklace.", Price: decimal.NewFromInt(4999), Category: "Sets", ImageURL: "https://images.unsplash.com/photo-1611591437281-460bfbe1220a", Stock: 9},
}

// EnsureAdmin creates the admin account unless the email is already registered.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if _, _, exists := s.store.AccountByEmail(email); exists {
		return nil
	}
	if _, err := s.createAccount("Admin", email, password, true); err != nil {
		return err
	}
	s.log.WithField("email", email).Info("Admin user created")
	return nil
}

// SeedProducts loads the sample catalogue into an empty store.
func (s *Service) SeedProducts(ctx context.Context) int {
	if len(s.store.Products("")) > 0 {
		return 0
	}
	base := s.now()
	for i, in := range sampleProducts {
		// Distinct timestamps keep the listing in catalogue order.
		s.store.PutProduct(fromInput(uuid.NewString(), in, base.Add(time.Duration(i)*time.Millisecond)))
	}
	s.log.WithFields(log.Fields{"count": len(sampleProducts)}).Info("Created sample products")
	return len(sampleProducts)
}
