package product

import (
	"crypto/md5"
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-catalog-service/internal/product/dto"
)

// SearchCachePattern matches every cached search page. Any mutation that can change a search
// result (product fields, assignments, stock) deletes it after commit.
const SearchCachePattern = "products:search:*"

func SearchCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:search:%x", md5.Sum(data)), nil
}
