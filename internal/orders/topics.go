package orders

import "strconv"

const TopicStockAdjusted = "inventory.stock.adjusted"

// Partition key = product_id, so every movement of one product stays ordered.
func PartitionKey(productID int64) []byte { return []byte(strconv.FormatInt(productID, 10)) }
